// config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// --- Sub-structs, mirroring the YAML layout ---

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	CORSOrigins     []string      `mapstructure:"corsOrigins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	DBName         string        `mapstructure:"dbName"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // "mongo" or "memory"
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type AuthConfig struct {
	BcryptCost int `mapstructure:"bcryptCost"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

// Enabled reports whether enough is configured to talk to a bucket.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.Region != ""
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// MarketplaceConfig holds the business knobs used by the ledger and dashboards.
type MarketplaceConfig struct {
	UnitPrice           int64   `mapstructure:"unitPrice"`
	ReorderThreshold    int64   `mapstructure:"reorderThreshold"`
	SearchRadiusKm      float64 `mapstructure:"searchRadiusKm"`
	ReconcileScope      string  `mapstructure:"reconcileScope"` // "store" or "role"
	RecentRequestsLimit int     `mapstructure:"recentRequestsLimit"`
}

type SeedConfig struct {
	OnStartup   bool   `mapstructure:"onStartup"`
	CatalogPath string `mapstructure:"catalogPath"`
}

// --- Root config ---

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Storage     StorageConfig     `mapstructure:"storage"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Auth        AuthConfig        `mapstructure:"auth"`
	S3          S3Config          `mapstructure:"s3"`
	Log         LogConfig         `mapstructure:"log"`
	Marketplace MarketplaceConfig `mapstructure:"marketplace"`
	Seed        SeedConfig        `mapstructure:"seed"`
}

var envBindings = map[string]string{
	"server.port":                     "SERVER_PORT",
	"server.mode":                     "GIN_MODE",
	"server.corsOrigins":              "CORS_ORIGINS",
	"mongo.uri":                       "MONGO_URI",
	"mongo.dbName":                    "MONGO_DBNAME",
	"storage.driver":                  "STORAGE_DRIVER",
	"jwt.secret":                      "JWT_SECRET",
	"jwt.expiration":                  "JWT_EXPIRATION",
	"auth.bcryptCost":                 "BCRYPT_COST",
	"s3.bucket":                       "S3_BUCKET",
	"s3.region":                       "S3_REGION",
	"s3.accessKeyID":                  "S3_ACCESS_KEY_ID",
	"s3.secretAccessKey":              "S3_SECRET_ACCESS_KEY",
	"s3.cloudFrontDomain":             "S3_CLOUDFRONT_DOMAIN",
	"log.level":                       "LOG_LEVEL",
	"log.format":                      "LOG_FORMAT",
	"marketplace.unitPrice":           "MARKETPLACE_UNIT_PRICE",
	"marketplace.reorderThreshold":    "MARKETPLACE_REORDER_THRESHOLD",
	"marketplace.searchRadiusKm":      "MARKETPLACE_SEARCH_RADIUS_KM",
	"marketplace.reconcileScope":      "MARKETPLACE_RECONCILE_SCOPE",
	"marketplace.recentRequestsLimit": "MARKETPLACE_RECENT_REQUESTS_LIMIT",
	"seed.onStartup":                  "SEED_ON_STARTUP",
	"seed.catalogPath":                "SEED_CATALOG_PATH",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.corsOrigins", []string{"*"})
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.dbName", "medeasy")
	v.SetDefault("mongo.connectTimeout", 10*time.Second)
	v.SetDefault("storage.driver", "mongo")
	v.SetDefault("jwt.expiration", 24*time.Hour)
	v.SetDefault("auth.bcryptCost", 14)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("marketplace.unitPrice", 100)
	v.SetDefault("marketplace.reorderThreshold", 10)
	v.SetDefault("marketplace.searchRadiusKm", 1000.0)
	v.SetDefault("marketplace.reconcileScope", "store")
	v.SetDefault("marketplace.recentRequestsLimit", 20)
}

// LoadConfig reads config.yaml from path and overrides it with environment
// variables. A .env file in the working directory is loaded first if present.
func LoadConfig(path string) (config Config, err error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	setDefaults(v)

	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return
		}
	}

	// Without a config file we run on defaults and environment only.
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	// CORS_ORIGINS arrives as a comma separated string.
	if len(config.Server.CORSOrigins) == 1 && strings.Contains(config.Server.CORSOrigins[0], ",") {
		config.Server.CORSOrigins = splitList(config.Server.CORSOrigins[0])
	}

	err = config.Validate()
	return
}

// Validate checks values that would otherwise fail deep inside the server.
func (c Config) Validate() error {
	var problems []string

	switch c.Storage.Driver {
	case "mongo":
		if c.Mongo.URI == "" || c.Mongo.DBName == "" {
			problems = append(problems, "mongo.uri and mongo.dbName are required for the mongo driver")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not one of mongo, memory", c.Storage.Driver))
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	if c.JWT.Expiration <= 0 {
		problems = append(problems, "jwt.expiration must be positive")
	}
	if c.Marketplace.UnitPrice < 0 {
		problems = append(problems, "marketplace.unitPrice must not be negative")
	}
	if c.Marketplace.ReorderThreshold < 0 {
		problems = append(problems, "marketplace.reorderThreshold must not be negative")
	}
	if c.Marketplace.SearchRadiusKm <= 0 {
		problems = append(problems, "marketplace.searchRadiusKm must be positive")
	}
	switch c.Marketplace.ReconcileScope {
	case "store", "role":
	default:
		problems = append(problems, fmt.Sprintf("marketplace.reconcileScope %q is not one of store, role", c.Marketplace.ReconcileScope))
	}
	if c.Seed.OnStartup && c.Seed.CatalogPath == "" {
		problems = append(problems, "seed.catalogPath is required when seed.onStartup is set")
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
