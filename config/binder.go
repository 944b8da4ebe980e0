package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Binder is a section of the configuration. Bind declares the section's
// flags and Configure reads the section back once they are parsed
type Binder interface {
	Bind(*viper.Viper, *cobra.Command) error
	Configure(*viper.Viper) error
}

// Binders is an ordered list of sections. Earlier sections are
// configured first
type Binders []Binder

// Bind binds every section, stopping on the first failure
func (b Binders) Bind(v *viper.Viper, cmd *cobra.Command) error {
	for _, binder := range b {
		if err := binder.Bind(v, cmd); err != nil {
			return err
		}
	}

	return nil
}

// Configure configures every section, stopping on the first failure
func (b Binders) Configure(v *viper.Viper) error {
	for _, binder := range b {
		if err := binder.Configure(v); err != nil {
			return err
		}
	}

	return nil
}
