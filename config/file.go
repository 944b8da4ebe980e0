package config

import (
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fileTypes = []string{"toml", "yaml", "yml"}

// ConfigFile reads the optional configuration file. Values read from
// the file act as defaults for flags and environment variables
type ConfigFile struct {
	Path string
}

func (f *ConfigFile) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("config.path", "", "sets the configuration file")
	return nil
}

func (f *ConfigFile) Configure(v *viper.Viper) error {
	f.Path = v.GetString("config.path")
	if len(f.Path) == 0 {
		return nil
	}

	ext := strings.TrimPrefix(path.Ext(f.Path), ".")
	if !isFileType(ext) {
		return ErrInvalidValue{Key: "config.path", InvalidValue: f.Path, Values: fileTypes}
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return errors.Wrap(err, "failed to open config file")
	}

	defer func() { _ = file.Close() }()
	v.SetConfigType(ext)
	if err := v.ReadConfig(file); err != nil {
		return errors.Wrap(err, "failed to read config file")
	}

	return nil
}

func isFileType(ext string) bool {
	for _, t := range fileTypes {
		if ext == t {
			return true
		}
	}

	return false
}
