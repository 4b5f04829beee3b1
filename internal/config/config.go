// Package config loads service configuration from a JSON file backend with
// PSYCHSYNC_* environment overrides.
package config

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Optimizer OptimizerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

// OptimizerConfig bounds the team-composition search.
type OptimizerConfig struct {
	MaxSubsets int // hard evaluation budget across all team sizes
	TopK       int // teams returned per run
	Workers    int // parallel evaluation width
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Optimizer: OptimizerConfig{
			MaxSubsets: 50000,
			TopK:       5,
			Workers:    4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/psychsync/config.json, then applies PSYCHSYNC_*
// environment overrides.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
