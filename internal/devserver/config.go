package devserver

import (
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/skipit/redemption/pkg/httpmiddleware"
)

// Config holds the dev server configuration, loadable from environment
// variables (SKIPIT_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"127.0.0.1:8080" usage:"Dev server listen address"`
	Seed      bool   `default:"true" usage:"Seed a demo catalog and orders on startup"`
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"300" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers, permissive by
// default so a local storefront build can talk to the server directly.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"1s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"10s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML files.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SKIPIT",
		Files:     []string{"devserver.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return &cfg, nil
}

func (c *Config) corsConfig() httpmiddleware.CORSConfig {
	return httpmiddleware.CORSConfig{
		AllowOrigins:     c.CORS.Origins,
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: c.CORS.AllowCredentials,
		MaxAge:           86400,
	}
}
