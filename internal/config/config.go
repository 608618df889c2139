package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	Migrate   bool
	HTTPAddr  string
	Probe     ProbeConfig
	SSH       SSHConfig
	Reconcile ReconcileConfig
	Bulk      BulkConfig
	SNMP      SNMPConfig
}

// DBConfig holds database configuration
type DBConfig struct {
	Driver string // mysql | postgres | sqlite
	DSN    string
}

// RedisConfig holds Redis configuration. An empty Addr disables redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// ProbeConfig holds reachability probe configuration
type ProbeConfig struct {
	ICMPTimeoutSec int
	PortTimeoutSec int
	Privileged     bool
}

// SSHConfig holds remote command execution configuration
type SSHConfig struct {
	ConnectTimeoutSec int
	CommandTimeoutSec int
	KnownHosts        string
}

// ReconcileConfig holds status reconcile worker configuration
type ReconcileConfig struct {
	WorkerEnabled bool
	Schedule      string
	Concurrency   int
	LockTTLSec    int
}

// BulkConfig holds bulk command configuration
type BulkConfig struct {
	Concurrency int
}

// SNMPConfig holds SNMP discovery configuration
type SNMPConfig struct {
	Port       int
	TimeoutSec int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DB: DBConfig{
			Driver: getEnv("DB_DRIVER", "mysql"),
			DSN:    getEnv("DB_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "go_netinv"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
		Migrate:  getEnvBool("MIGRATE", false),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Probe: ProbeConfig{
			ICMPTimeoutSec: getEnvInt("PROBE_ICMP_TIMEOUT_SEC", 5),
			PortTimeoutSec: getEnvInt("PROBE_PORT_TIMEOUT_SEC", 5),
			Privileged:     getEnvBool("PROBE_PRIVILEGED", false),
		},
		SSH: SSHConfig{
			ConnectTimeoutSec: getEnvInt("SSH_CONNECT_TIMEOUT_SEC", 10),
			CommandTimeoutSec: getEnvInt("SSH_COMMAND_TIMEOUT_SEC", 60),
			KnownHosts:        getEnv("SSH_KNOWN_HOSTS", ""),
		},
		Reconcile: ReconcileConfig{
			WorkerEnabled: getEnvBool("RECONCILE_WORKER_ENABLED", true),
			Schedule:      getEnv("RECONCILE_SCHEDULE", "@every 5m"),
			Concurrency:   getEnvInt("RECONCILE_CONCURRENCY", 10),
			LockTTLSec:    getEnvInt("RECONCILE_LOCK_TTL_SEC", 300),
		},
		Bulk: BulkConfig{
			Concurrency: getEnvInt("BULK_CONCURRENCY", 10),
		},
		SNMP: SNMPConfig{
			Port:       getEnvInt("SNMP_PORT", 161),
			TimeoutSec: getEnvInt("SNMP_TIMEOUT_SEC", 5),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DB.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Reconcile.Concurrency <= 0 {
		return fmt.Errorf("RECONCILE_CONCURRENCY must be positive")
	}
	if c.Bulk.Concurrency <= 0 {
		return fmt.Errorf("BULK_CONCURRENCY must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "1" || value == "true"
	}
	return defaultValue
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	_ = godotenv.Load()

	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		DB: DBConfig{
			Driver: getValue("DB_DRIVER", "database", "driver", "mysql"),
			DSN:    getValue("DB_DSN", "database", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", ""),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 1440),
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "go_netinv"),
		},
		Log: LogConfig{
			Level:  getValue("LOG_LEVEL", "log", "level", "info"),
			Format: getValue("LOG_FORMAT", "log", "format", "text"),
			File:   getValue("LOG_FILE", "log", "file", ""),
		},
		Migrate:  getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr: getValue("HTTP_ADDR", "http", "addr", ":8080"),
		Probe: ProbeConfig{
			ICMPTimeoutSec: getValueInt("PROBE_ICMP_TIMEOUT_SEC", "probe", "icmp_timeout_sec", 5),
			PortTimeoutSec: getValueInt("PROBE_PORT_TIMEOUT_SEC", "probe", "port_timeout_sec", 5),
			Privileged:     getValueBool("PROBE_PRIVILEGED", "probe", "privileged", false),
		},
		SSH: SSHConfig{
			ConnectTimeoutSec: getValueInt("SSH_CONNECT_TIMEOUT_SEC", "ssh", "connect_timeout_sec", 10),
			CommandTimeoutSec: getValueInt("SSH_COMMAND_TIMEOUT_SEC", "ssh", "command_timeout_sec", 60),
			KnownHosts:        getValue("SSH_KNOWN_HOSTS", "ssh", "known_hosts", ""),
		},
		Reconcile: ReconcileConfig{
			WorkerEnabled: getValueBool("RECONCILE_WORKER_ENABLED", "reconcile", "worker_enabled", true),
			Schedule:      getValue("RECONCILE_SCHEDULE", "reconcile", "schedule", "@every 5m"),
			Concurrency:   getValueInt("RECONCILE_CONCURRENCY", "reconcile", "concurrency", 10),
			LockTTLSec:    getValueInt("RECONCILE_LOCK_TTL_SEC", "reconcile", "lock_ttl_sec", 300),
		},
		Bulk: BulkConfig{
			Concurrency: getValueInt("BULK_CONCURRENCY", "bulk", "concurrency", 10),
		},
		SNMP: SNMPConfig{
			Port:       getValueInt("SNMP_PORT", "snmp", "port", 161),
			TimeoutSec: getValueInt("SNMP_TIMEOUT_SEC", "snmp", "timeout_sec", 5),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
