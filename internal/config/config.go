// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env              string  `yaml:"env" env:"ENV" env-default:"local"`
	StoragePath      string  `yaml:"storage_path" env:"STORAGE_PATH" env-default:"db.sqlite3"`
	MigrationsPath   string  `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	MaxStocksPerUser int     `yaml:"max_stocks_per_user" env:"MAX_STOCKS_PER_USER" env-default:"5"`
	AdminIDs         []int64 `yaml:"admin_ids" env:"ADMIN_IDS"`
	RedisConnection  `yaml:"redis_connection"`
	HTTPServer       `yaml:"http_server"`
	RabbitMQ         `yaml:"rabbitmq"`
	Export           `yaml:"export"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"5s"`
}

// RabbitMQ структура для настройки подключения к брокеру событий.
// Пустая строка подключения отключает публикацию событий.
type RabbitMQ struct {
	RabbitConnection string        `yaml:"rabbit_connection"`
	ConnectRetries   int           `yaml:"connect_retries" env-default:"5"`
	ConnectDelay     time.Duration `yaml:"connect_delay" env-default:"2s"`
}

// Export структура для настройки выгрузки событий в Google Таблицу.
type Export struct {
	SheetURL      string        `yaml:"sheet_url"`
	ExportTimeout time.Duration `yaml:"export_timeout" env-default:"5s"`
}

// MustLoad загружает конфиг из файла, путь к которому задан в CONFIG_PATH.
// При любой ошибке завершает процесс.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StoragePath: %s\n"+
			"MaxStocksPerUser: %d\n"+
			"AdminIDs: %v\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RabbitMQ:\n"+
			"  Connection: %s\n"+
			"Export:\n"+
			"  SheetURL: %s\n",
		c.Env,
		c.StoragePath,
		c.MaxStocksPerUser,
		c.AdminIDs,
		c.AddressRedis,
		c.User,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.RabbitConnection,
		c.SheetURL,
	)
}
