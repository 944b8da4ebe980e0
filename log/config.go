package log

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	levels  = []string{"debug", "info", "warn", "error"}
	formats = []string{"json", "text"}
)

type Config struct {
	Level  string
	Format string
}

func (c *Config) Log(fields Fields) {
	fields.Add("logging.level", c.Level)
	fields.Add("logging.format", c.Format)
}

func (c *Config) Configure(v *viper.Viper) error {
	c.Level = v.GetString("logging.level")
	if len(c.Level) == 0 {
		c.Level = "debug"
	}
	if !contains(levels, c.Level) {
		return fmt.Errorf("logging.level set to invalid value %s, accepted values are %v", c.Level, levels)
	}

	c.Format = v.GetString("logging.format")
	if len(c.Format) == 0 {
		c.Format = "json"
	}
	if !contains(formats, c.Format) {
		return fmt.Errorf("logging.format set to invalid value %s, accepted values are %v", c.Format, formats)
	}

	return nil
}

func (c *Config) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("logging.level", "debug",
		"sets the minimum logging level for the logger")
	cmd.PersistentFlags().String("logging.format", "json",
		"log line format, either json or text")
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}

	return false
}
