package app

import (
	"os"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the wallet configuration, loadable from environment variables
// (SKIPIT_ prefix) or a YAML config file.
type Config struct {
	APIBaseURL string `default:"http://127.0.0.1:8080" usage:"Order service base URL"`
	Token      string `usage:"Bearer token of the signed-in user (SKIPIT_TOKEN)"`
	OutputDir  string `default:"." usage:"Directory where QR images are saved"`
	QRSize     int    `default:"512" usage:"QR image size in pixels"`
}

// LoadConfig loads configuration from environment variables and YAML. Command
// line flags belong to the subcommands, so flag parsing is skipped here.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: true,
		EnvPrefix: "SKIPIT",
		Files:     []string{"skipit.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if cfg.Token == "" {
		// Convenience for local runs against the dev server.
		cfg.Token = os.Getenv("SKIPIT_USER")
	}
	return &cfg, nil
}
