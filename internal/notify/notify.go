// Package notify отправляет письма покупателям: подтверждение заказа и сброс пароля.
package notify

import (
	"context"
	"log/slog"
)

// Message - готовое к отправке письмо
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer отправляет письмо. Реализации должны уважать дедлайн контекста.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NopMailer только пишет письмо в лог; используется, когда SMTP не настроен
type NopMailer struct {
	log *slog.Logger
}

func NewNopMailer(log *slog.Logger) *NopMailer {
	return &NopMailer{log: log}
}

func (m *NopMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("email not sent: smtp is not configured",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}
