package delivery

import (
	"context"
	"io"

	"github.com/jameshorton2486/kollect-it-sub006/internal/render"
	"gopkg.in/gomail.v2"
)

type EmailGateway struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailGateway(host string, port int, from, password string) *EmailGateway {
	return &EmailGateway{
		dialer: gomail.NewDialer(host, port, from, password),
		from:   from,
	}
}

// Deliver sends one message per recipient rather than a single multi-To
// message, so each recipient gets an independent outcome.
func (g *EmailGateway) Deliver(ctx context.Context, content *render.Content, recipients []string) ([]RecipientResult, error) {
	results := make([]RecipientResult, 0, len(recipients))
	for _, rcpt := range recipients {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		m := gomail.NewMessage()
		m.SetHeader("From", g.from)
		m.SetHeader("To", rcpt)
		m.SetHeader("Subject", content.Subject)
		if content.MIMEType == "text/html" {
			m.SetBody("text/html", content.Body)
		} else {
			m.SetBody("text/plain", "Your scheduled report is attached.")
			m.Attach(content.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write([]byte(content.Body))
				return err
			}))
		}

		if err := g.dialer.DialAndSend(m); err != nil {
			results = append(results, RecipientResult{Recipient: rcpt, Error: err.Error()})
			continue
		}
		results = append(results, RecipientResult{Recipient: rcpt, OK: true})
	}
	return results, nil
}
