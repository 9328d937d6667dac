package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Service         ServiceConfig        `mapstructure:"service"`
	Databases       DatabasesConfig      `mapstructure:"databases"`
	ExternalClients ExternalClientConfig `mapstructure:"externalClients"`
	Ledger          LedgerConfig         `mapstructure:"ledger"`
	Logging         LoggingConfig        `mapstructure:"logging"`
	AWS             AWSConfig            `mapstructure:"aws"`
}

type ServiceType string

const (
	API     ServiceType = "API"
	WORKER  ServiceType = "WORKER"
	MIGRATE ServiceType = "MIGRATE"
)

type ServiceConfig struct {
	Type ServiceType `mapstructure:"type"`
	Port string      `mapstructure:"port"`
}

type DatabasesConfig struct {
	SQL SQLConfig `mapstructure:"sql"`
}

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	PasswordSecretID string `mapstructure:"passwordSecretId"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
	MaxConns         int32  `mapstructure:"maxConns"`
}

// DSN returns the connection string, building it from the individual fields when it is not set.
func (c SQLConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host,
		c.Username,
		c.Password,
		c.Database,
		c.Port)
}

type ExternalClientConfig struct {
	Yahoo YahooConfig `mapstructure:"yahoo"`
}

type YahooConfig struct {
	BaseURL        string `mapstructure:"baseUrl"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	RateLimit      int    `mapstructure:"rateLimit"`
	UserAgent      string `mapstructure:"userAgent"`
}

type LedgerConfig struct {
	BackfillOnBuy    bool   `mapstructure:"backfillOnBuy"`
	PriceWindowHours int    `mapstructure:"priceWindowHours"`
	ListConcurrency  int    `mapstructure:"listConcurrency"`
	Currency         string `mapstructure:"currency"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	ToFile   bool   `mapstructure:"toFile"`
	FilePath string `mapstructure:"filePath"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.type", string(API))
	v.SetDefault("service.port", "8000")
	v.SetDefault("databases.sql.maxConns", 5)
	v.SetDefault("externalClients.yahoo.baseUrl", "https://query1.finance.yahoo.com")
	v.SetDefault("externalClients.yahoo.timeoutSeconds", 10)
	v.SetDefault("externalClients.yahoo.rateLimit", 5)
	v.SetDefault("externalClients.yahoo.userAgent", "Mozilla/5.0 (compatible; tracker/1.0)")
	v.SetDefault("ledger.backfillOnBuy", true)
	v.SetDefault("ledger.priceWindowHours", 12)
	v.SetDefault("ledger.listConcurrency", 4)
	v.SetDefault("ledger.currency", "USD")
	v.SetDefault("logging.level", "info")
	v.SetDefault("aws.region", "us-east-1")
}

// LoadConfig reads appsettings.yaml from path and merges appsettings.<env>.yaml on top of it when present.
// Values from a .env file and the process environment take precedence.
func LoadConfig(path string, env string) (*Config, error) {
	var cfg Config

	// A missing .env is the normal case outside local development
	_ = godotenv.Load(filepath.Join(path, "..", ".env"))

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName("appsettings")
	v.SetConfigType("yaml")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	if env != "" {
		envFile := filepath.Join(path, fmt.Sprintf("appsettings.%s.yaml", env))
		if _, statErr := os.Stat(envFile); statErr == nil {
			v.SetConfigFile(envFile)
			if err := v.MergeInConfig(); err != nil {
				return nil, err
			}
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return nil, statErr
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("databases.sql.password", "DB_PASSWORD"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("databases.sql.connection_string", "DATABASE_URL"); err != nil {
		return nil, err
	}

	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
