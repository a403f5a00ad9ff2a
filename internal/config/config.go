package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config carries everything the process needs. Values come from a YAML
// file with environment-variable overrides (dots become underscores,
// e.g. DATABASE_TYPE overrides database.type).
type Config struct {
	APIPort int `mapstructure:"apiPort"`

	DatabaseType            string `mapstructure:"databaseType"` // "sqlite" or "postgres"
	DatabasePath            string `mapstructure:"databasePath"`
	DatabaseHost            string `mapstructure:"databaseHost"`
	DatabasePort            string `mapstructure:"databasePort"`
	DatabaseName            string `mapstructure:"databaseName"`
	DatabaseUser            string `mapstructure:"databaseUser"`
	DatabasePassword        string `mapstructure:"databasePassword"`
	DatabaseSSLMode         string `mapstructure:"databaseSSLMode"`
	DatabaseMaxConns        int    `mapstructure:"databaseMaxConns"`
	DatabaseMaxIdle         int    `mapstructure:"databaseMaxIdle"`
	DatabaseConnMaxLifetime string `mapstructure:"databaseConnMaxLifetime"`

	JWTSecret string `mapstructure:"jwtSecret"`

	// FrontendURL is the SPA origin embedded in password-reset links.
	FrontendURL string `mapstructure:"frontendURL"`

	SMTPHost string `mapstructure:"smtpHost"`
	SMTPPort string `mapstructure:"smtpPort"`
	SMTPUser string `mapstructure:"smtpUser"`
	SMTPPass string `mapstructure:"smtpPass"`
	MailFrom string `mapstructure:"mailFrom"`

	// Object storage for report exports. Exports are disabled when the
	// bucket is empty.
	StorageEndpoint  string `mapstructure:"storageEndpoint"`
	StorageRegion    string `mapstructure:"storageRegion"`
	StorageBucket    string `mapstructure:"storageBucket"`
	StorageAccessKey string `mapstructure:"storageAccessKey"`
	StorageSecretKey string `mapstructure:"storageSecretKey"`

	CORSOrigins []string `mapstructure:"corsOrigins"`
}

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: could not read config file: %v. Using defaults and environment variables.", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIPort == 0 {
		cfg.APIPort = 3000
		log.Println("apiPort not specified, using default 3000")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = "sqlite"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "contabilidad.db"
	}
	if cfg.DatabaseSSLMode == "" {
		cfg.DatabaseSSLMode = "disable"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "cambia-esto"
		log.Println("jwtSecret not specified, using insecure default")
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:4200"
	}
	if cfg.SMTPPort == "" {
		cfg.SMTPPort = "587"
	}
	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.SMTPUser
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:4200"}
	}

	return &cfg, nil
}
