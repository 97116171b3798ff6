package bootstrap

import (
	"github.com/kbukum/ssecast/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig with `mapstructure:",squash"` satisfies it
// through promoted methods, as long as it also defines ApplyDefaults and
// Validate covering its own sections.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
