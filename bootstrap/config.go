package bootstrap

import "github.com/kbukum/shadowkit/config"

// Config is the constraint on application config types. Any struct that
// embeds config.BaseConfig by value satisfies it through promoted methods
// when it also defines ApplyDefaults and Validate on its pointer.
type Config interface {
	GetBaseConfig() *config.BaseConfig
	ApplyDefaults()
	Validate() error
}
