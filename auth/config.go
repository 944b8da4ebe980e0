package auth

import (
	"time"

	"github.com/garagehub/dispatch/config"
	"github.com/garagehub/dispatch/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config sets the configuration for token issuance and
// verification
type Config struct {
	Secret           string
	Issuer           string
	StandardValidity time.Duration
	ShortValidity    time.Duration
}

// Log implementation of log.Loggable. The secret is never logged
func (c *Config) Log(fields log.Fields) {
	fields.Add("auth.issuer", c.Issuer)
	fields.Add("auth.standard_validity", c.StandardValidity.String())
	fields.Add("auth.short_validity", c.ShortValidity.String())
}

func (c *Config) Configure(v *viper.Viper) error {
	c.Secret = v.GetString("auth.secret")
	if len(c.Secret) == 0 {
		return config.ErrKeyNotSet{Key: "auth.secret"}
	}

	c.Issuer = v.GetString("auth.issuer")
	if len(c.Issuer) == 0 {
		return config.ErrKeyNotSet{Key: "auth.issuer"}
	}

	c.StandardValidity = v.GetDuration("auth.standard_validity")
	if c.StandardValidity <= 0 {
		return config.ErrInvalidValue{Key: "auth.standard_validity", InvalidValue: c.StandardValidity.String()}
	}

	c.ShortValidity = v.GetDuration("auth.short_validity")
	if c.ShortValidity <= 0 {
		return config.ErrInvalidValue{Key: "auth.short_validity", InvalidValue: c.ShortValidity.String()}
	}

	return nil
}

func (c *Config) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("auth.secret", "",
		"symmetric secret used to sign and verify tokens")
	cmd.PersistentFlags().String("auth.issuer", "dispatch",
		"issuer set in the tokens and required when verifying them")
	cmd.PersistentFlags().Duration("auth.standard_validity", DefaultStandardValidity,
		"validity of the tokens issued on login")
	cmd.PersistentFlags().Duration("auth.short_validity", DefaultShortValidity,
		"validity of the single purpose tokens")
	return nil
}
