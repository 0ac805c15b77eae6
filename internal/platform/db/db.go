package db

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"fichadas-sync/internal/platform/mongodb"
)

const driverName = "mysql"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type SyncConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Version string         `yaml:"version"`
	Mode    string         `yaml:"mode"`
	DB      DatabaseConfig `yaml:"database"`
	Mongo   mongodb.Config `yaml:"mongo"`
	Sync    SyncConfig     `yaml:"sync"`
	API     APIConfig      `yaml:"api"`
}

// Defaults mirrors the values the worker historically ran with when no
// config file was present.
func Defaults() *Config {
	return &Config{
		Mode: "release",
		DB: DatabaseConfig{
			Host:     "localhost",
			Port:     3306,
			Username: "sa",
			DBName:   "hospital",
		},
		Mongo: mongodb.Config{
			URL:      "mongodb://localhost:27017",
			Database: "rrhh",
		},
		Sync: SyncConfig{
			PollInterval:  3 * time.Second,
			RetryInterval: 60 * time.Second,
		},
		API: APIConfig{
			Addr: ":3004",
		},
	}
}

// LoadConfig reads the yaml config and applies environment overrides.
// A missing file is not an error: defaults + environment apply.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()
	buf, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Mode = envStr("MODE", cfg.Mode)
	cfg.DB.Host = envStr("MYSQL_HOST", cfg.DB.Host)
	cfg.DB.Port = envInt("MYSQL_PORT", cfg.DB.Port)
	cfg.DB.Username = envStr("MYSQL_USER", cfg.DB.Username)
	cfg.DB.Password = envStr("MYSQL_PASS", cfg.DB.Password)
	cfg.DB.DBName = envStr("MYSQL_DB", cfg.DB.DBName)
	cfg.Mongo.URL = envStr("MONGO_HOST", cfg.Mongo.URL)
	cfg.Mongo.Database = envStr("MONGO_DB", cfg.Mongo.Database)
	cfg.Sync.PollInterval = envDur("SYNC_POLL_INTERVAL", cfg.Sync.PollInterval)
	cfg.Sync.RetryInterval = envDur("SYNC_RETRY_INTERVAL", cfg.Sync.RetryInterval)
	cfg.API.Addr = envStr("API_ADDR", cfg.API.Addr)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func Connect(c DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}

	// Single-worker process; a small pool covers the loop plus the API.
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(4)
	conn.SetConnMaxLifetime(30 * time.Minute)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	return conn, nil
}
