package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/linemk/bookstore/internal/lib/logger/handlers/slogpretty"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// SetupLogger - логгер сервера и мигратора, пишет в stdout
func SetupLogger(env string) *slog.Logger {
	return New(env, os.Stdout)
}

// New выбирает формат по окружению: local - цветной pretty, dev - JSON с debug,
// prod и неизвестные окружения - JSON с info
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case EnvLocal:
		color.NoColor = false
		return slog.New(pretty(w, slog.LevelDebug))
	case EnvDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

// NewCLI - логгер консольного клиента: только предупреждения, с verbose - всё.
// Цвет определяет fatih/color по терминалу.
func NewCLI(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(pretty(w, level))
}

func pretty(w io.Writer, level slog.Level) slog.Handler {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: level},
	}
	return opts.NewPrettyHandler(w)
}
