package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load creates a viper instance bound to environment variables with the
// given prefix (e.g. prefix "ZONING" maps SERVICE_PORT to ZONING_SERVICE_PORT).
func Load(prefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// GetServicePort returns the HTTP listen address from the given key,
// defaulting to ":8080". A bare port number is prefixed with ":".
func GetServicePort(v *viper.Viper, key string) string {
	port := v.GetString(key)
	if port == "" {
		return ":8080"
	}
	if !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}

// GetAppEnv returns the application environment, defaulting to "development".
func GetAppEnv(v *viper.Viper) string {
	env := v.GetString("APP_ENV")
	if env == "" {
		return "development"
	}
	return env
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LoadDatabaseConfig reads database settings, taking the database name from
// the given key so services can share a prefix but use distinct databases.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) DatabaseConfig {
	cfg := DatabaseConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		User:     v.GetString("DB_USER"),
		Password: v.GetString("DB_PASSWORD"),
		DBName:   v.GetString(dbNameKey),
		SSLMode:  v.GetString("DB_SSLMODE"),
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.User == "" {
		cfg.User = "postgres"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return cfg
}

// DSN returns the keyword/value connection string for the database.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DatabaseURL returns the URL-style connection string used by migration tooling.
func (c DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// LoadKafkaConfig reads Kafka settings with sensible local defaults.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	brokers := v.GetString("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092"
	}
	groupPrefix := v.GetString("KAFKA_GROUP_PREFIX")
	if groupPrefix == "" {
		groupPrefix = "fleetgrid-"
	}
	return KafkaConfig{
		Brokers:     strings.Split(brokers, ","),
		GroupPrefix: groupPrefix,
	}
}
