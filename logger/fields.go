package logger

// Standard field key constants for structured logging.
const (
	FieldComponent     = "component"
	FieldContainerID   = "container_id"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldServiceType   = "service_type"
	FieldTag           = "tag"
	FieldScope         = "scope"
	FieldScopeID       = "scope_id"
	FieldClient        = "client"
	FieldParameter     = "parameter"
	FieldDeclaringType = "declaring_type"
	FieldMember        = "member"
	FieldCached        = "cached"
	FieldCount         = "count"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("service_type", "*game.Sword", "tag", "primary"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldError] = err.Error()
	return fields
}
