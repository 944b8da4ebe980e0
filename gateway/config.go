package gateway

import (
	"errors"
	"time"

	"github.com/garagehub/dispatch/auth"
	"github.com/garagehub/dispatch/callback"
	"github.com/garagehub/dispatch/config"
	"github.com/garagehub/dispatch/eventlog"
	"github.com/garagehub/dispatch/identity"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the general application's configuration
type Config struct {
	BindPublicConfig BindPublicConfig
	ServerConfig     ServerConfig
	CorsConfig       CorsConfig
	LoggingConfig    log.Config
	AuthConfig       auth.Config
	IdentityConfig   identity.Config
	EventlogConfig   eventlog.Config
	CallbackConfig   callback.Config
	MetricsConfig    metrics.Config
}

func (c *Config) Use() string {
	return "dispatch"
}

func (c *Config) EnvPrefix() string {
	return "DISPATCH"
}

func (c *Config) Binders() []config.Binder {
	return []config.Binder{
		&c.BindPublicConfig,
		&c.ServerConfig,
		&c.CorsConfig,
		&c.LoggingConfig,
		&c.AuthConfig,
		&c.IdentityConfig,
		&c.EventlogConfig,
		&c.CallbackConfig,
		&c.MetricsConfig,
	}
}

func (c *Config) Log(fields log.Fields) {
	c.BindPublicConfig.Log(fields)
	c.ServerConfig.Log(fields)
	c.CorsConfig.Log(fields)
	c.LoggingConfig.Log(fields)
	c.AuthConfig.Log(fields)
	c.IdentityConfig.Log(fields)
	c.EventlogConfig.Log(fields)
	c.CallbackConfig.Log(fields)
	c.MetricsConfig.Log(fields)
}

// BindConfig is the configuration for binding the exposed APIs
// to the computer network interface
type BindConfig struct {
	HttpInterface      string
	HttpPort           int32
	HttpReadTimeoutMs  int32
	HttpWriteTimeoutMs int32
	HttpMaxHeaderBytes int32
	HttpMaxBodyBytes   int64
	HttpsEnabled       bool
	TlsCertificatePath string
	TlsPrivateKeyPath  string
}

func (c *BindConfig) Configure(prefix string, v *viper.Viper) error {
	c.HttpInterface = v.GetString(prefix + ".http_interface")
	if len(c.HttpInterface) == 0 {
		return errors.New(prefix + ".http_interface must be set")
	}

	c.HttpPort = v.GetInt32(prefix + ".http_port")
	if c.HttpPort > 65535 || c.HttpPort < 0 {
		return errors.New(prefix + ".http_port must be an integer between 0 and 65535")
	}

	c.HttpReadTimeoutMs = v.GetInt32(prefix + ".http_read_timeout_ms")
	if c.HttpReadTimeoutMs < 0 {
		return errors.New(prefix + ".http_read_timeout_ms cannot be negative")
	}

	c.HttpWriteTimeoutMs = v.GetInt32(prefix + ".http_write_timeout_ms")
	if c.HttpWriteTimeoutMs < 0 {
		return errors.New(prefix + ".http_write_timeout_ms cannot be negative")
	}

	c.HttpMaxHeaderBytes = v.GetInt32(prefix + ".http_max_header_bytes")
	if c.HttpMaxHeaderBytes < 0 {
		return errors.New(prefix + ".http_max_header_bytes cannot be negative")
	}

	c.HttpMaxBodyBytes = v.GetInt64(prefix + ".http_max_body_bytes")
	if c.HttpMaxBodyBytes <= 0 {
		return errors.New(prefix + ".http_max_body_bytes must be positive")
	}

	c.HttpsEnabled = v.GetBool(prefix + ".https_enabled")
	c.TlsCertificatePath = v.GetString(prefix + ".tls_certificate_path")
	c.TlsPrivateKeyPath = v.GetString(prefix + ".tls_private_key_path")

	if c.HttpsEnabled {
		if len(c.TlsCertificatePath) == 0 || len(c.TlsPrivateKeyPath) == 0 {
			return errors.New(prefix + ".tls_certificate_path and " + prefix + ".tls_private_key_path " +
				"must be set if " + prefix + ".https_enabled is set")
		}
	}

	return nil
}

func (c *BindConfig) Bind(prefix string, v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String(prefix+".http_interface", "127.0.0.1",
		"interface to bind for http")
	cmd.PersistentFlags().Int32(prefix+".http_port", 1234,
		"port to listen to for http")
	cmd.PersistentFlags().Int32(prefix+".http_read_timeout_ms",
		10000, "http read timeout for http interface")
	cmd.PersistentFlags().Int32(prefix+".http_write_timeout_ms",
		10000, "http write timeout for http interface")
	cmd.PersistentFlags().Int32(prefix+".http_max_header_bytes",
		10000, "http max header bytes for http")
	cmd.PersistentFlags().Int64(prefix+".http_max_body_bytes",
		1<<16, "http max body bytes for http. Larger requests are rejected")
	cmd.PersistentFlags().Bool(prefix+".https_enabled",
		false, "if set the interface will listen with https. If this option is "+
			"set, then "+prefix+".tls_certificate_path and "+prefix+
			".tls_private_key_path must be set as well")
	cmd.PersistentFlags().String(prefix+".tls_certificate_path",
		"", "path to the tls certificate for https")
	cmd.PersistentFlags().String(prefix+".tls_private_key_path",
		"", "path to the private key for https")

	return nil
}

func (c *BindConfig) ReadTimeout() time.Duration {
	return time.Duration(c.HttpReadTimeoutMs) * time.Millisecond
}

func (c *BindConfig) WriteTimeout() time.Duration {
	return time.Duration(c.HttpWriteTimeoutMs) * time.Millisecond
}

type BindPublicConfig struct {
	BindConfig
}

func (c *BindPublicConfig) Log(fields log.Fields) {
	fields.Add("bind_public.http_interface", c.BindConfig.HttpInterface)
	fields.Add("bind_public.http_port", c.BindConfig.HttpPort)
	fields.Add("bind_public.http_read_timeout_ms", c.BindConfig.HttpReadTimeoutMs)
	fields.Add("bind_public.http_write_timeout_ms", c.BindConfig.HttpWriteTimeoutMs)
	fields.Add("bind_public.http_max_header_bytes", c.BindConfig.HttpMaxHeaderBytes)
	fields.Add("bind_public.http_max_body_bytes", c.BindConfig.HttpMaxBodyBytes)
	fields.Add("bind_public.https_enabled", c.BindConfig.HttpsEnabled)
	fields.Add("bind_public.tls_certificate_path", c.BindConfig.TlsCertificatePath)
	fields.Add("bind_public.tls_private_key_path", c.BindConfig.TlsPrivateKeyPath)
}

func (c *BindPublicConfig) Configure(v *viper.Viper) error {
	return c.BindConfig.Configure("bind_public", v)
}

func (c *BindPublicConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	return c.BindConfig.Bind("bind_public", v, cmd)
}

// ServerConfig holds the behaviour of the request handling
type ServerConfig struct {
	// Development if set includes the reason and the cause of failures
	// in error responses
	Development bool
}

func (c *ServerConfig) Log(fields log.Fields) {
	fields.Add("server.development", c.Development)
}

func (c *ServerConfig) Configure(v *viper.Viper) error {
	c.Development = v.GetBool("server.development")
	return nil
}

func (c *ServerConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().Bool("server.development", false,
		"if set error responses include the reason and the cause of the failure. "+
			"Must not be set in production")
	return nil
}

// CorsConfig is the configuration of the CORS preprocessor
type CorsConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	MaxAge           int
	AllowCredentials bool
}

func (c *CorsConfig) Log(fields log.Fields) {
	fields.Add("cors.enabled", c.Enabled)
	fields.Add("cors.allowed_origins", c.AllowedOrigins)
	fields.Add("cors.allowed_methods", c.AllowedMethods)
	fields.Add("cors.allowed_headers", c.AllowedHeaders)
	fields.Add("cors.exposed_headers", c.ExposedHeaders)
	fields.Add("cors.max_age", c.MaxAge)
	fields.Add("cors.allow_credentials", c.AllowCredentials)
}

func (c *CorsConfig) Configure(v *viper.Viper) error {
	c.Enabled = v.GetBool("cors.enabled")
	c.AllowedOrigins = v.GetStringSlice("cors.allowed_origins")
	c.AllowedMethods = v.GetStringSlice("cors.allowed_methods")
	c.AllowedHeaders = v.GetStringSlice("cors.allowed_headers")
	c.ExposedHeaders = v.GetStringSlice("cors.exposed_headers")
	c.MaxAge = v.GetInt("cors.max_age")
	c.AllowCredentials = v.GetBool("cors.allow_credentials")

	if c.MaxAge < 0 {
		return errors.New("cors.max_age cannot be negative")
	}

	if c.Enabled && len(c.AllowedOrigins) == 0 {
		return config.ErrKeyNotSet{Key: "cors.allowed_origins"}
	}

	return nil
}

func (c *CorsConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().Bool("cors.enabled", false,
		"if set cross origin requests are handled")
	cmd.PersistentFlags().StringSlice("cors.allowed_origins", nil,
		"origins allowed to make cross origin requests. `*` allows any origin")
	cmd.PersistentFlags().StringSlice("cors.allowed_methods",
		[]string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE"},
		"methods allowed for cross origin requests")
	cmd.PersistentFlags().StringSlice("cors.allowed_headers",
		[]string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		"headers allowed in cross origin requests")
	cmd.PersistentFlags().StringSlice("cors.exposed_headers",
		[]string{"X-Request-ID"}, "headers exposed to cross origin clients")
	cmd.PersistentFlags().Int("cors.max_age", 0,
		"seconds the result of a preflight request can be cached")
	cmd.PersistentFlags().Bool("cors.allow_credentials", false,
		"if set cross origin requests may include credentials")
	return nil
}
