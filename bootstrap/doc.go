// Package bootstrap hosts a lifescope container.
//
// It loads typed configuration, owns the container lifecycle, allocates
// scope ids, and wraps scope loads, activations and teardowns in spans.
//
// # Quick Start
//
//	var cfg bootstrap.Config
//	if err := config.LoadConfig("arena", &cfg); err != nil {
//	    log.Fatal(err)
//	}
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.OnStart(func(ctx context.Context) error {
//	    return di.Register[*Clock](app.Container, NewClock())
//	})
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    level, err := app.LoadScope(ctx, "level-1", func(ctx context.Context, s di.Scope) error {
//	        return di.Register[Weapon](app.Container, &Sword{}, di.InScope(s))
//	    })
//	    if err != nil {
//	        return err
//	    }
//	    defer app.UnloadScope(ctx, level)
//	    return app.Activate(ctx, &Warrior{})
//	})
package bootstrap
