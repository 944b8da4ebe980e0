package callback

import (
	"strings"
	"text/template"

	"github.com/garagehub/dispatch/config"
	"github.com/garagehub/dispatch/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type PasswordReset struct {
	Callback
}

func (c *PasswordReset) Configure(v *viper.Viper) error {
	c.Enabled = v.GetBool("callback.password_reset.enabled")
	if !c.Enabled {
		return nil
	}

	c.Method = v.GetString("callback.password_reset.method")
	if len(c.Method) == 0 {
		return config.ErrKeyNotSet{Key: "callback.password_reset.method"}
	}

	c.URL = v.GetString("callback.password_reset.url")
	if len(c.URL) == 0 {
		return config.ErrKeyNotSet{Key: "callback.password_reset.url"}
	}

	c.Body = v.GetString("callback.password_reset.body")
	if len(c.Body) > 0 {
		if _, err := template.New("password_reset").Parse(c.Body); err != nil {
			return config.ErrInvalidValue{Key: "callback.password_reset.body", InvalidValue: c.Body}
		}
	}

	c.Headers = v.GetStringSlice("callback.password_reset.headers")
	c.Sync = v.GetBool("callback.password_reset.sync")
	return nil
}

func (c *PasswordReset) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().Bool("callback.password_reset.enabled", false,
		"enables the password_reset callback. This callback will be sent by the "+
			"service when a password reset token has been issued.")
	cmd.PersistentFlags().String("callback.password_reset.method", "POST",
		"http method on the request for the callback.")
	cmd.PersistentFlags().String("callback.password_reset.url", "",
		"http url for the callback.")
	cmd.PersistentFlags().String("callback.password_reset.body", "",
		"template for the http body of the callback. Defaults to the JSON encoded body.")
	cmd.PersistentFlags().StringSlice("callback.password_reset.headers", nil,
		"http headers for the callback.")
	cmd.PersistentFlags().Bool("callback.password_reset.sync", false,
		"deliver the callback before responding to the request.")
	return nil
}

func (c *PasswordReset) Log(fields log.Fields) {
	fields.Add("callback.password_reset.enabled", c.Enabled)
	fields.Add("callback.password_reset.method", c.Method)
	fields.Add("callback.password_reset.url", c.URL)
	fields.Add("callback.password_reset.sync", c.Sync)
	fields.Add("callback.password_reset.headers", strings.Join(c.Headers, ","))
}

type Callback struct {
	Enabled bool
	Method  string
	URL     string
	Body    string
	Headers []string
	Sync    bool
}

type Config struct {
	PasswordReset PasswordReset
}

func (c *Config) Configure(v *viper.Viper) error {
	return c.PasswordReset.Configure(v)
}

func (c *Config) Bind(v *viper.Viper, cmd *cobra.Command) error {
	return c.PasswordReset.Bind(v, cmd)
}

func (c *Config) Log(fields log.Fields) {
	c.PasswordReset.Log(fields)
}
