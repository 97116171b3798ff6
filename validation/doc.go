// Package validation validates configuration structs with go-playground
// validator tags, reporting failures by their config key names.
//
//	type Config struct {
//	    Channel string `mapstructure:"channel" validate:"required"`
//	}
//	err := validation.Validate(cfg)
package validation
