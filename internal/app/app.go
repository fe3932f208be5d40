package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/linemk/bookstore/internal/config"
	"github.com/linemk/bookstore/internal/notify"
	"github.com/linemk/bookstore/internal/storage"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB
	// Pool - единственный разделяемый ресурс; через него открываются все транзакции
	Pool   *storage.Pool
	Mailer notify.Mailer
}

// DSN собирает строку подключения к postgres
func DSN(db config.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
	)
}

// NewApp создаёт новый экземпляр App
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	// реализуем подключение к БД через DSN
	db, err := sql.Open("postgres", DSN(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	app := &App{
		Config: cfg,
		Logger: log,
		DB:     db,
		Pool:   storage.NewPool(db, cfg.Database.AcquireTimeout),
		Mailer: NewMailer(log, cfg.SMTP),
	}

	return app, nil
}

// NewMailer - SMTP, если задан хост, иначе письма только логируются
func NewMailer(log *slog.Logger, cfg config.SMTPConfig) notify.Mailer {
	if cfg.Host == "" {
		log.Warn("smtp host is not set, emails will only be logged")
		return notify.NewNopMailer(log)
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		Timeout:  cfg.Timeout,
	})
}
