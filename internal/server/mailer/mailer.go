// Package mailer delivers outgoing email. The service hands a message over
// and does not wait for or act on delivery.
package mailer

import (
	"context"

	"github.com/dmitrijs2005/shopauth/internal/logging"
)

type Message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender "delivers" by logging the full message. Development only: the
// body carries reset tokens.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info(ctx, "mail delivered to log", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
