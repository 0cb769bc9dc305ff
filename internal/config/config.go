package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Models    ModelsConfig
	Analysis  AnalysisConfig
	History   HistoryConfig
	Worker    WorkerConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// DataConfig locates the datasets. Paths may be local files or http(s)
// URLs. AnomalyPath is optional.
type DataConfig struct {
	Path        string
	AnomalyPath string
}

type ModelsConfig struct {
	Backend         string // "file" or "http"
	RegressorPath   string
	ClustererPath   string
	SeverityMapPath string
	ServiceURL      string
	Timeout         time.Duration
	ClusterFeatures int // 4 or 5, http backend only
}

type AnalysisConfig struct {
	MatchPolicy string
	TopCities   int
}

type HistoryConfig struct {
	Enabled bool
	Driver  string // "sqlite", "postgres" or "memory"
	DSN     string
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type RateLimitConfig struct {
	RPS float64
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		Data: DataConfig{
			Path:        getEnv("DATA_PATH", "data/processed/processed_data.csv"),
			AnomalyPath: getEnv("ANOMALY_DATA_PATH", "data/processed/anomalies_dbscan.csv"),
		},
		Models: ModelsConfig{
			Backend:         getEnv("MODEL_BACKEND", "file"),
			RegressorPath:   getEnv("REGRESSOR_PATH", "models/xgboost_model.json"),
			ClustererPath:   getEnv("CLUSTERER_PATH", "models/kmeans_model.json"),
			SeverityMapPath: getEnv("SEVERITY_MAP_PATH", "models/cluster_severity_map.json"),
			ServiceURL:      getEnv("MODEL_SERVICE_URL", "http://localhost:8000"),
			Timeout:         getEnvDuration("MODEL_TIMEOUT", 5*time.Second),
			ClusterFeatures: getEnvInt("CLUSTER_FEATURES", 5),
		},
		Analysis: AnalysisConfig{
			MatchPolicy: getEnv("MATCH_POLICY", "latest"),
			TopCities:   getEnvInt("TOP_CITIES", 10),
		},
		History: HistoryConfig{
			Enabled: getEnvBool("HISTORY_ENABLED", false),
			Driver:  getEnv("HISTORY_DRIVER", "sqlite"),
			DSN:     getEnv("HISTORY_DSN", "./data/airsense-history.db"),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 100),
		},
		RateLimit: RateLimitConfig{
			RPS: getEnvFloat("RATE_LIMIT_RPS", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Data.Path == "" {
		return fmt.Errorf("DATA_PATH is required")
	}

	switch c.Models.Backend {
	case "file":
		if c.Models.RegressorPath == "" || c.Models.ClustererPath == "" {
			return fmt.Errorf("file model backend needs REGRESSOR_PATH and CLUSTERER_PATH")
		}
	case "http":
		if c.Models.ServiceURL == "" {
			return fmt.Errorf("http model backend needs MODEL_SERVICE_URL")
		}
		if c.Models.ClusterFeatures != 4 && c.Models.ClusterFeatures != 5 {
			return fmt.Errorf("cluster features must be 4 or 5, got %d", c.Models.ClusterFeatures)
		}
	default:
		return fmt.Errorf("invalid model backend: %s", c.Models.Backend)
	}
	if c.Models.SeverityMapPath == "" {
		return fmt.Errorf("SEVERITY_MAP_PATH is required")
	}

	validPolicies := map[string]bool{"latest": true, "first": true, "unique": true}
	if !validPolicies[c.Analysis.MatchPolicy] {
		return fmt.Errorf("invalid match policy: %s", c.Analysis.MatchPolicy)
	}
	if c.Analysis.TopCities < 1 {
		return fmt.Errorf("top cities must be positive")
	}

	if c.History.Enabled {
		switch c.History.Driver {
		case "sqlite", "postgres", "memory":
		default:
			return fmt.Errorf("invalid history driver: %s", c.History.Driver)
		}
		if c.History.DSN == "" && c.History.Driver != "memory" {
			return fmt.Errorf("HISTORY_DSN is required when history is enabled")
		}
	}

	if c.Worker.Count < 1 || c.Worker.BufferSize < 1 {
		return fmt.Errorf("worker count and buffer size must be positive")
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
