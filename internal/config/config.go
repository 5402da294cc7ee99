package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	BindHost      string        `mapstructure:"bind_host"`
	APIBaseURL    string        `mapstructure:"api_base_url"`
	AccessToken   string        `mapstructure:"access_token"`
	ReplayDir     string        `mapstructure:"replay_dir"`
	LobbyVersion  string        `mapstructure:"lobby_version"`
	Username      string        `mapstructure:"username"`
	ChunkSize     int           `mapstructure:"chunk_size"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	AccessTimeout time.Duration `mapstructure:"access_timeout"`
	LogLevel      string        `mapstructure:"log_level"`
	StartLimit    int           `mapstructure:"start_limit"`
	StartWindow   time.Duration `mapstructure:"start_window"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8090)
	v.SetDefault("bind_host", "127.0.0.1")
	v.SetDefault("api_base_url", "https://api.faforever.com")
	v.SetDefault("replay_dir", "./replays")
	v.SetDefault("lobby_version", "0.0.0-dev")
	v.SetDefault("username", "")
	v.SetDefault("chunk_size", 32768)
	v.SetDefault("dial_timeout", "10s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("access_timeout", "10s")
	v.SetDefault("log_level", "info")
	v.SetDefault("start_limit", 20)
	v.SetDefault("start_window", "1m")
}

// Flags returns the command-line flags understood by Load. Flag values win
// over the config file and the environment.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("replayrelay", pflag.ContinueOnError)
	fs.String("mode", "release", "gin mode (release|debug)")
	fs.Int("port", 8090, "control API port")
	fs.String("bind_host", "127.0.0.1", "host the replay and spectate listeners bind to")
	fs.String("replay_dir", "./replays", "directory finished replays are written to")
	fs.String("log_level", "info", "zerolog level")
	return fs
}

func Load(args []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("REPLAYRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d", cfg.ChunkSize)
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("bind_host", cfg.BindHost).
		Str("replay_dir", cfg.ReplayDir).
		Msg("config ready")
	return &cfg, nil
}
