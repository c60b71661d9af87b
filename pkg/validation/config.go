package validation

// Config holds engine settings loaded from the environment.
type Config struct {
	Strict           bool `env:"VALIDATION_STRICT" envDefault:"false"`
	BindingCacheSize int  `env:"VALIDATION_BINDING_CACHE_SIZE" envDefault:"256"`
}
