package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "DEEPWATCH_CONFIG"

// DefaultPath is read when EnvPath is unset.
const DefaultPath = "config.yaml"

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Server holds all configuration for the game server.
type Server struct {
	LogLevel     string        `yaml:"log_level"`
	TickInterval time.Duration `yaml:"tick_interval"`
	// AutoStart starts the turn loop at boot instead of waiting for the
	// startloop command.
	AutoStart bool `yaml:"auto_start"`

	World WorldConfig `yaml:"world"`
	Comms CommsConfig `yaml:"comms"`

	Storage StorageConfig `yaml:"storage"`
	// IndexDB is the SQLite tick index path. Empty disables the index.
	IndexDB string `yaml:"index_db"`

	Gateway    GatewayConfig    `yaml:"gateway"`
	MapService MapServiceConfig `yaml:"map_service"`
	Notify     NotifyConfig     `yaml:"notify"`

	Puzzles []PuzzleEntry `yaml:"puzzles"`
	// Seed fixes the world RNG. 0 seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

// WorldConfig is the map size.
type WorldConfig struct {
	XLimit int `yaml:"x_limit"`
	YLimit int `yaml:"y_limit"`
}

// CommsConfig tunes broadcasts.
type CommsConfig struct {
	Garble   int           `yaml:"garble"`
	Cooldown time.Duration `yaml:"cooldown"`
}

// StorageConfig selects where snapshots go.
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	SaveDir  string         `yaml:"save_dir"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// GatewayConfig is the websocket listener. Control commands need a
// connection opened with ControlToken; an empty token disables them.
type GatewayConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BindAddress  string `yaml:"bind_address"`
	Port         int    `yaml:"port"`
	ControlToken string `yaml:"control_token"`
	QueueSize    int    `yaml:"queue_size"`
}

// Addr returns host:port for net/http.
func (g GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.BindAddress, g.Port)
}

// MapServiceConfig points at the external map viewer. An empty domain
// disables map commands.
type MapServiceConfig struct {
	Domain  string        `yaml:"domain"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// NotifyConfig throttles report delivery per channel.
type NotifyConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// PuzzleEntry is one engineering puzzle and its accepted answers.
type PuzzleEntry struct {
	Name    string   `yaml:"name"`
	Answers []string `yaml:"answers"`
}

// Default returns Server config with sensible defaults.
func Default() Server {
	return Server{
		LogLevel:     "info",
		TickInterval: 5 * time.Second,
		World: WorldConfig{
			XLimit: 50,
			YLimit: 50,
		},
		Comms: CommsConfig{
			Garble:   10,
			Cooldown: 30 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			SaveDir: "saves",
			Database: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "deepwatch",
				Password: "deepwatch",
				DBName:   "deepwatch",
				SSLMode:  "disable",
			},
		},
		IndexDB: "data/index.sqlite",
		Gateway: GatewayConfig{
			Enabled:     true,
			BindAddress: "0.0.0.0",
			Port:        8765,
			QueueSize:   64,
		},
		MapService: MapServiceConfig{
			Timeout: 10 * time.Second,
		},
		Notify: NotifyConfig{
			RatePerSecond: 2,
			Burst:         5,
		},
	}
}

// Path returns the config path, honouring EnvPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Server, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c Server) Validate() error {
	switch {
	case c.TickInterval <= 0:
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	case c.World.XLimit <= 0 || c.World.YLimit <= 0:
		return fmt.Errorf("world size must be positive, got %dx%d", c.World.XLimit, c.World.YLimit)
	case c.Comms.Garble < 0:
		return fmt.Errorf("comms.garble must not be negative, got %d", c.Comms.Garble)
	case c.Storage.Backend != BackendFile && c.Storage.Backend != BackendPostgres:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendFile, BackendPostgres, c.Storage.Backend)
	case c.Gateway.Enabled && (c.Gateway.Port <= 0 || c.Gateway.Port > 65535):
		return fmt.Errorf("gateway.port out of range: %d", c.Gateway.Port)
	}
	for i, p := range c.Puzzles {
		if p.Name == "" || len(p.Answers) == 0 {
			return fmt.Errorf("puzzles[%d] needs a name and at least one answer", i)
		}
	}
	return nil
}
