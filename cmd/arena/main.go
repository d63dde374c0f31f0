// Package main runs a small arena game on top of a lifescope container:
// global services live for the whole run, weapons live per level, and
// warriors are activated through their injection methods.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/lifescope/bootstrap"
	"github.com/kbukum/lifescope/config"
	"github.com/kbukum/lifescope/di"
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/validation"
	"github.com/kbukum/lifescope/version"
)

// ArenaConfig is the arena's config file layout.
type ArenaConfig struct {
	bootstrap.Config `yaml:",inline" mapstructure:",squash"`
	Levels           int `yaml:"levels" mapstructure:"levels" validate:"gte=1"`
	Warriors         int `yaml:"warriors" mapstructure:"warriors" validate:"gte=1"`
}

// Validate checks the host sections and the arena settings.
func (c *ArenaConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

func main() {
	var configFile string
	var showVersion bool
	flag.StringVar(&configFile, "config", "", "config file (default: search ./cmd/arena/config.yml, ./config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print the build version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Get())
		return
	}

	cfg := ArenaConfig{Levels: 2, Warriors: 3}
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if err := config.LoadConfig("arena", &cfg, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app.OnStart(func(ctx context.Context) error {
		c := app.Container
		if err := di.Register(c, &Clock{}); err != nil {
			return err
		}
		if err := c.RegisterConstructor(NewForge); err != nil {
			return err
		}
		return c.RegisterConstructor(NewArmedForge)
	})

	if err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return play(ctx, app)
	}); err != nil {
		app.Logger.Error("Arena failed", logger.ErrorFields("play", err))
		os.Exit(1)
	}
}

func play(ctx context.Context, app *bootstrap.App[*ArenaConfig]) error {
	c := app.Container
	if err := c.SetRecordingResolutions(true); err != nil {
		return err
	}

	for n := 1; n <= app.Cfg.Levels; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		level, err := app.LoadScope(ctx, fmt.Sprintf("level-%d", n), func(ctx context.Context, s di.Scope) error {
			if err := di.Register[Weapon](c, &Sword{damage: 10 * n}, di.InScope(s), di.WithTag("primary")); err != nil {
				return err
			}
			if n%2 == 0 {
				if err := di.Register[Weapon](c, &Bow{damage: 3 * n}, di.InScope(s), di.WithTag("secondary")); err != nil {
					return err
				}
				return di.Register[Weapon](c, &Bow{damage: n}, di.InScope(s))
			}
			return nil
		})
		if err != nil {
			return err
		}

		warriors := make([]any, app.Cfg.Warriors)
		for i := range warriors {
			warriors[i] = &Warrior{Unit: Unit{Label: fmt.Sprintf("warrior-%d", i+1)}}
		}
		if err := app.Activate(ctx, warriors...); err != nil {
			return err
		}

		total := 0
		for _, w := range warriors {
			total += w.(*Warrior).Attack()
		}

		forge, err := di.Construct[*Forge](c)
		if err != nil {
			return err
		}

		app.Logger.Info("Level complete", logger.Fields(
			logger.FieldScope, level.Name,
			"damage", total,
			"forge", forge.String(),
		))

		if _, err := app.UnloadScope(ctx, level); err != nil {
			return err
		}
	}

	counts, err := c.ResolutionCounts()
	if err != nil {
		return err
	}
	for t, n := range counts.Cached {
		app.Logger.Info("Resolution counter", logger.Fields(logger.FieldServiceType, t.String(), logger.FieldCached, true, logger.FieldCount, n))
	}
	for t, n := range counts.Uncached {
		app.Logger.Info("Resolution counter", logger.Fields(logger.FieldServiceType, t.String(), logger.FieldCached, false, logger.FieldCount, n))
	}
	return nil
}
