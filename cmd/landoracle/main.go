// Command landoracle estimates land prices from a district and locality
// using a stacked ensemble of gradient-boosted models.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rewired-gh/landoracle/internal/config"
	"github.com/rewired-gh/landoracle/internal/logger"
)

var version = "v0.1.0"

func main() {
	app := kingpin.New("landoracle", "stacked-ensemble land price estimator")
	configPath := app.Flag("config", "path to configuration file").
		Default("configs/config.yaml").
		String()

	registerServe(app, configPath)
	registerEstimate(app, configPath)
	registerDistricts(app, configPath)
	registerLocalities(app, configPath)
	registerHistory(app, configPath)

	app.Version(version)
	kingpin.MustParse(app.Parse(os.Args[1:]))
}

// loadConfig loads and validates the configuration and initializes logging.
// Any failure here is fatal.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Debug("Configuration loaded from %s", path)
	return cfg
}
