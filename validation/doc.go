// Package validation validates configuration structs with struct tags.
//
//	type Config struct {
//	    InjectPrefix string   `mapstructure:"inject_prefix" validate:"required,exported"`
//	    CacheTypes   []string `mapstructure:"cache_types" validate:"dive,required"`
//	}
//	err := validation.Validate(cfg)
//
// Failures are returned as *errors.AppError with code INVALID_CONFIG and a
// "fields" detail listing every offending field.
package validation
