package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is an application configuration made of sections
type Config interface {
	// Use is the name of the command
	Use() string

	// EnvPrefix is the prefix of the environment variables that set
	// configuration keys
	EnvPrefix() string

	Binders() []Binder
}

type Parser struct {
	Config Config

	file *ConfigFile

	cmd *cobra.Command
	v   *viper.Viper
}

// Parse parses the process arguments
func (p *Parser) Parse() error {
	return p.ParseArgs(os.Args[1:])
}

// ParseArgs parses args and configures every section of the
// configuration
func (p *Parser) ParseArgs(args []string) error {
	if p.cmd.PersistentFlags().Parsed() {
		return ErrAlreadyParsed
	}

	if err := p.cmd.PersistentFlags().Parse(args); err != nil {
		return ErrParseFlags{err}
	}

	// keep file first so that any parameters read from the file are used
	// as defaults for the other flags
	binders := append(Binders{p.file}, p.Config.Binders()...)
	return binders.Configure(p.v)
}

func (p *Parser) Usage() error {
	return p.cmd.Usage()
}

// Generate creates the parser for a configuration. Keys are read from
// flags, from environment variables and from the configuration file.
// Environment variables start with the configuration prefix and replace
// `.` with `_`. For example, with prefix DISPATCH the key auth.secret
// can be set with DISPATCH_AUTH_SECRET
func Generate(config Config) (*Parser, error) {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{Use: config.Use()}
	file := ConfigFile{}
	binders := append(Binders{&file}, config.Binders()...)
	if err := binders.Bind(v, cmd); err != nil {
		return nil, errors.Wrap(err, "failed to bind flags")
	}

	if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
		return nil, errors.Wrap(err, "failed to bind flags")
	}

	return &Parser{file: &file, Config: config, cmd: cmd, v: v}, nil
}
