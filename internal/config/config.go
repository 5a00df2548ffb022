package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Balance BalanceConfig `mapstructure:"balance"`
	Fees    FeesConfig    `mapstructure:"fees"`
	Token   TokenConfig   `mapstructure:"token"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DBConfig struct {
	DatabaseURL        string        `mapstructure:"database_url"`
	MaxOpenConnection  int           `mapstructure:"max_open_connection"`
	MaxIdleConnection  int           `mapstructure:"max_idle_connection"`
	ConnectionLifetime time.Duration `mapstructure:"connection_lifetime"`
	MigrateOnStart     bool          `mapstructure:"migrate_on_start"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	// Driver is "memory" or "redis".
	Driver    string        `mapstructure:"driver"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type QueueConfig struct {
	// Driver is "redis" or "kafka".
	Driver  string   `mapstructure:"driver"`
	Stream  string   `mapstructure:"stream"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type BalanceConfig struct {
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// ChannelFee values are decimal strings.
type ChannelFee struct {
	MinSum    string `mapstructure:"min_sum"`
	FixedFee  string `mapstructure:"fixed_fee"`
	FeeRate   string `mapstructure:"fee_rate"`
	Precision int32  `mapstructure:"precision"`
}

type FeesConfig struct {
	Bank        ChannelFee `mapstructure:"bank"`
	Satoshi     ChannelFee `mapstructure:"satoshi"`
	Protoshares ChannelFee `mapstructure:"protoshares"`
}

type TokenConfig struct {
	AuthToken string `mapstructure:"auth_token"`
}

type LoggerConfig struct {
	LoggerLevel string `mapstructure:"logger_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")

	v.SetDefault("db.database_url", "")
	v.SetDefault("db.max_open_connection", 15)
	v.SetDefault("db.max_idle_connection", 10)
	v.SetDefault("db.connection_lifetime", time.Hour)
	v.SetDefault("db.migrate_on_start", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.key_prefix", "payout:")
	v.SetDefault("cache.ttl", time.Minute)

	v.SetDefault("queue.driver", "redis")
	v.SetDefault("queue.stream", "payout:examine")
	v.SetDefault("queue.topic", "payout.examine")
	v.SetDefault("queue.brokers", []string{"localhost:9092"})

	v.SetDefault("balance.lock_timeout", 3*time.Second)

	v.SetDefault("fees.bank.min_sum", "100")
	v.SetDefault("fees.bank.fixed_fee", "0")
	v.SetDefault("fees.bank.fee_rate", "0")
	v.SetDefault("fees.bank.precision", 2)
	v.SetDefault("fees.satoshi.min_sum", "0.001")
	v.SetDefault("fees.satoshi.fixed_fee", "0.0005")
	v.SetDefault("fees.satoshi.fee_rate", "0")
	v.SetDefault("fees.satoshi.precision", 8)
	v.SetDefault("fees.protoshares.min_sum", "0.1")
	v.SetDefault("fees.protoshares.fixed_fee", "0.1")
	v.SetDefault("fees.protoshares.fee_rate", "0")
	v.SetDefault("fees.protoshares.precision", 8)

	v.SetDefault("token.auth_token", "test-token")
	v.SetDefault("logger.logger_level", "info")
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("config file not found, using defaults and environment")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("using config file: %s", v.ConfigFileUsed())
	}

	var config Config

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if config.DB.DatabaseURL == "" {
		return nil, fmt.Errorf("db.database_url is required")
	}

	return &config, nil
}
