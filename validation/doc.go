// Package validation checks configuration structs.
//
// Struct tag validation uses go-playground/validator and reports fields by
// their mapstructure key, so errors name the same keys a user writes in
// config.yml:
//
//	type PipelineConfig struct {
//	    QueueCapacity int `mapstructure:"queue_capacity" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// Cross-field rules use the programmatic Validator:
//
//	v := validation.New()
//	v.Required("monitor.addr", cfg.Addr)
//	err := v.Validate()
package validation
