package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

// Admin holds the shared secret exchanged for an admin token. SecretHash, a
// bcrypt hash, wins over Secret when both are set.
type Admin struct {
	Secret     string
	SecretHash string `mapstructure:"secretHash"`
}

type Storage struct {
	Backend      string // file | gorm | redis
	DataDir      string `mapstructure:"dataDir"`
	OpTimeoutSec int    `mapstructure:"opTimeoutSec"`
}

func (s Storage) OpTimeout() time.Duration { return time.Duration(s.OpTimeoutSec) * time.Second }

type Redis struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	Prefix         string `mapstructure:"prefix"`
	DialTimeoutMs  int    `mapstructure:"dialTimeoutMs"`
	ReadTimeoutMs  int    `mapstructure:"readTimeoutMs"`
	WriteTimeoutMs int    `mapstructure:"writeTimeoutMs"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Mail struct {
	Provider        string // ses | noop
	From            string
	FromName        string `mapstructure:"fromName"`
	Region          string
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
}

// Payment is the bank information shown to payers.
type Payment struct {
	Amount             string
	Currency           string
	BankName           string `mapstructure:"bankName"`
	AccountName        string `mapstructure:"accountName"`
	AccountNumber      string `mapstructure:"accountNumber"`
	BranchInstructions string `mapstructure:"branchInstructions"`
}

type Limits struct {
	RatePerSec    float64 `mapstructure:"ratePerSec"`
	Burst         int
	MaxConcurrent int64 `mapstructure:"maxConcurrent"`
	MaxBodyBytes  int64 `mapstructure:"maxBodyBytes"`
	TimeoutSec    int   `mapstructure:"timeoutSec"`
}

type CORS struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	Admin   Admin
	Storage Storage
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Mail    Mail
	Payment Payment
	Limits  Limits
	CORS    CORS `mapstructure:"cors"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "event-portal")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "event-portal")
	v.SetDefault("jwt.accessTokenTTLMin", 120)
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dataDir", "./data")
	v.SetDefault("storage.opTimeoutSec", 5)
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 5)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("redis.prefix", "portal")
	v.SetDefault("redis.dialTimeoutMs", 2000)
	v.SetDefault("redis.readTimeoutMs", 1000)
	v.SetDefault("redis.writeTimeoutMs", 1000)
	v.SetDefault("mail.provider", "noop")
	v.SetDefault("limits.ratePerSec", 10)
	v.SetDefault("limits.burst", 20)
	v.SetDefault("limits.maxConcurrent", 256)
	v.SetDefault("limits.maxBodyBytes", 1<<20)
	v.SetDefault("limits.timeoutSec", 10)
}

// Load reads the YAML file at path (or CONFIG_PATH, or the local default).
// Every key can be overridden by an APP_ prefixed env var, e.g.
// APP_STORAGE_BACKEND=redis.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func MustLoad(path string) *Config {
	c, err := Load(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return c
}
