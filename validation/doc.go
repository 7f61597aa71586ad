// Package validation checks configuration and option structs.
//
// Struct tag validation uses go-playground/validator; field names in messages
// are the mapstructure keys users write in config files:
//
//	type Options struct {
//	    Codec string `mapstructure:"codec" validate:"oneof=null deflate snappy"`
//	}
//	err := validation.Validate(opts)
//
// Programmatic checks collect every problem before failing:
//
//	v := validation.New()
//	v.Min("threads", threads, 1)
//	err := v.Validate()
//
// Both return *errors.AppError with code CONFIGURATION.
package validation
