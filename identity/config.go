package identity

import (
	"github.com/garagehub/dispatch/config"
	"github.com/garagehub/dispatch/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Backend string

const (
	BackendMem      Backend = "mem"
	BackendPostgres Backend = "postgres"
)

func (b Backend) String() string {
	return string(b)
}

// Config for the identity store
type Config struct {
	Backend Backend
	DSN     string
}

func (c *Config) Log(fields log.Fields) {
	fields.Add("identity.backend", c.Backend)
}

func (c *Config) Configure(v *viper.Viper) error {
	c.Backend = Backend(v.GetString("identity.backend"))
	c.DSN = v.GetString("identity.dsn")

	switch c.Backend {
	case BackendMem:
		return nil
	case BackendPostgres:
		if len(c.DSN) == 0 {
			return config.ErrKeyNotSet{Key: "identity.dsn"}
		}
		return nil
	case "":
		return config.ErrKeyNotSet{Key: "identity.backend"}
	default:
		return config.ErrInvalidValue{
			Key:          "identity.backend",
			InvalidValue: c.Backend.String(),
			Values:       []string{BackendMem.String(), BackendPostgres.String()},
		}
	}
}

func (c *Config) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("identity.backend", BackendMem.String(),
		"backend for the identity store. "+
			"Options are "+BackendMem.String()+
			", "+BackendPostgres.String()+".")
	cmd.PersistentFlags().String("identity.dsn", "",
		"postgres connection string, required by the postgres backend")
	return nil
}
