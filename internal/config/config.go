package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"runtime"
	"strings"

	"github.com/andresmejia3/faceenroll/internal/camera"
	"github.com/andresmejia3/faceenroll/internal/embedding"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultDatabase is the SQLite file used when nothing else is configured.
const DefaultDatabase = "faces.db"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Verify   VerifyConfig   `mapstructure:"verify"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"` // SQLite path or postgres:// URL
}

type CameraConfig struct {
	Device string `mapstructure:"device"`
	FFmpeg string `mapstructure:"ffmpeg"`
}

type EngineConfig struct {
	Kind         string `mapstructure:"kind"` // dlib | python
	ModelsDir    string `mapstructure:"models_dir"`
	CNN          bool   `mapstructure:"cnn"`
	Python       string `mapstructure:"python"`
	WorkerScript string `mapstructure:"worker_script"`
}

type VerifyConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	Metric    string  `mapstructure:"metric"` // euclidean | cosine
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"db":        "database.url",
	"device":    "camera.device",
	"engine":    "engine.kind",
	"models":    "engine.models_dir",
	"log-level": "log.level",
	"threshold": "verify.threshold",
	"metric":    "verify.metric",
}

// Load resolves configuration from (lowest to highest precedence) defaults,
// the YAML file, FACEENROLL_* environment variables and command line flags.
// flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("faceenroll")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FACEENROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// database.url has no default so the POSTGRES_* fallback can tell "unset" apart
	v.SetDefault("camera.device", camera.DefaultDevice(runtime.GOOS))
	v.SetDefault("camera.ffmpeg", "ffmpeg")
	v.SetDefault("engine.kind", "dlib")
	v.SetDefault("engine.models_dir", "models")
	v.SetDefault("engine.cnn", false)
	v.SetDefault("engine.python", "python3")
	v.SetDefault("engine.worker_script", "python/worker.py")
	v.SetDefault("verify.threshold", 0.5)
	v.SetDefault("verify.metric", "euclidean")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.BindEnv("database.url")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = postgresFromEnv()
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = DefaultDatabase
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	switch c.Engine.Kind {
	case "dlib", "python":
	default:
		return fmt.Errorf("unknown engine %q: must be dlib or python", c.Engine.Kind)
	}
	if c.Verify.Threshold <= 0 {
		return fmt.Errorf("verify threshold must be positive, got %v", c.Verify.Threshold)
	}
	if _, err := embedding.MetricByName(c.Verify.Metric); err != nil {
		return err
	}
	return nil
}

// postgresFromEnv builds a connection string from the conventional POSTGRES_*
// variables, or returns "" when POSTGRES_HOST is not set.
func postgresFromEnv() string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	user := os.Getenv("POSTGRES_USER")
	pass := os.Getenv("POSTGRES_PASSWORD")
	name := os.Getenv("POSTGRES_DB")
	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + name,
	}
	if user != "" || pass != "" {
		u.User = url.UserPassword(user, pass)
	}
	return u.String()
}
