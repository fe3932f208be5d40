package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"development"` // environment
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Migrations MigrationsConfig `yaml:"migrations"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	CORS       CORSConfig       `yaml:"cors"`
	Badges     BadgesConfig     `yaml:"badges"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`
	// ограничения пула: при исчерпании ждём не дольше AcquireTimeout и отвечаем 503
	MaxOpenConns   int           `yaml:"max_open_conns" env-default:"20"`
	MaxIdleConns   int           `yaml:"max_idle_conns" env-default:"5"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout" env-default:"2s"`
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret        string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	TokenTTL      int    `yaml:"token_ttl" env-default:"60"`       // минуты
	ResetTokenTTL int    `yaml:"reset_token_ttl" env-default:"15"` // минуты
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// SMTPConfig почта для подтверждений заказа и сброса пароля.
// Пустой Host - письма не отправляются, только логируются.
type SMTPConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port" env-default:"587"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"-" env:"SMTP_PASSWORD"`
	From        string        `yaml:"from" env-default:"no-reply@bookstore.local"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	FrontendURL string        `yaml:"frontend_url" env-default:"http://localhost:5173"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env-default:"http://localhost:5173"`
}

type BadgesConfig struct {
	CatalogPath string `yaml:"catalog_path" env-default:"./configs/badges.yaml"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	// .env необязателен, переменные окружения процесса имеют приоритет
	_ = godotenv.Load()

	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	if f := flag.Lookup("config"); f != nil {
		path = f.Value.String()
	} else {
		flag.StringVar(&path, "config", "", "path to config file")
		flag.Parse()
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}
