package registry

import "fmt"

// GlobalScopeID identifies the scope whose services live as long as the container.
const GlobalScopeID = 0

// Scope groups services for bulk teardown. Scopes are compared by ID; the
// name is only used in diagnostics.
type Scope struct {
	ID   int
	Name string
}

// Global is the scope with unbounded lifetime.
var Global = Scope{ID: GlobalScopeID, Name: "global"}

// NewScope returns a scope handle.
func NewScope(id int, name string) Scope {
	return Scope{ID: id, Name: name}
}

// IsGlobal reports whether s is the global scope.
func (s Scope) IsGlobal() bool { return s.ID == GlobalScopeID }

func (s Scope) String() string {
	if s.Name == "" {
		return fmt.Sprintf("scope#%d", s.ID)
	}
	return fmt.Sprintf("%s#%d", s.Name, s.ID)
}
