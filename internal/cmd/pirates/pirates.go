// Package pirates parses pirates service flags and launches the service.
package pirates

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/cryptopia-com/cryptopia-world/internal/platform/cmd"
	server "github.com/cryptopia-com/cryptopia-world/internal/services/pirates/app"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"
)

// Config holds pirates command configuration.
type Config struct {
	Port int `env:"CRYPTOPIA_PIRATES_PORT" envDefault:"8095"`
	// Addr overrides Port when set, e.g. "127.0.0.1:8095".
	Addr      string `env:"CRYPTOPIA_PIRATES_ADDR"`
	DBPath    string `env:"CRYPTOPIA_PIRATES_DB_PATH" envDefault:"data/pirates.db"`
	WorldPath string `env:"CRYPTOPIA_PIRATES_WORLD_PATH"`
	ServiceID string `env:"CRYPTOPIA_PIRATES_SERVICE_ID" envDefault:"cryptopia-pirates"`

	ResponseTimeout  time.Duration `env:"CRYPTOPIA_PIRATES_RESPONSE_TIMEOUT" envDefault:"10m"`
	ExpirationWindow time.Duration `env:"CRYPTOPIA_PIRATES_EXPIRATION_WINDOW" envDefault:"10m"`
	PlunderTimeout   time.Duration `env:"CRYPTOPIA_PIRATES_PLUNDER_TIMEOUT" envDefault:"10m"`
	BountyWindow     time.Duration `env:"CRYPTOPIA_PIRATES_BOUNTY_WINDOW" envDefault:"30m"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The pirates gRPC server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The pirates gRPC listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the pirates SQLite database")
	fs.StringVar(&cfg.WorldPath, "world", cfg.WorldPath, "Path to a JSON world fixture (empty uses the embedded one)")
	fs.DurationVar(&cfg.ResponseTimeout, "response-timeout", cfg.ResponseTimeout, "How long an intercepted target has to respond")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Rules returns the confrontation rules configured by cfg.
func (c Config) Rules() confrontation.Rules {
	rules := confrontation.DefaultRules()
	rules.ResponseTimeout = c.ResponseTimeout
	rules.ExpirationWindow = c.ExpirationWindow
	rules.PlunderTimeout = c.PlunderTimeout
	rules.BountyWindow = c.BountyWindow
	return rules
}

func (c Config) listenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// Run starts the pirates gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePirates, func(context.Context) error {
		return server.Run(ctx, server.Config{
			Addr:      cfg.listenAddr(),
			DBPath:    cfg.DBPath,
			WorldPath: cfg.WorldPath,
			ServiceID: cfg.ServiceID,
			Rules:     cfg.Rules(),
		})
	})
}
