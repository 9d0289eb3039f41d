package mailer

import (
	"net/http"
	"yuksekolah_go/config"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// Message is a rendered outbound email.
type Message struct {
	ToName      string
	ToEmail     string
	Subject     string
	TextContent string
	HTMLContent string
}

// Mailer delivers messages best-effort. Sends never block the request path
// beyond queueing a goroutine, and failures are logged, not returned.
type Mailer interface {
	Send(msg Message)
}

// New returns the SendGrid mailer when an API key is configured, otherwise a
// console mailer that only logs (development, tests).
func New() Mailer {
	if config.AppConfig != nil && config.AppConfig.SendgridAPIKey != "" {
		return &sendgridMailer{
			key:       config.AppConfig.SendgridAPIKey,
			fromName:  config.AppConfig.MailFromName,
			fromEmail: config.AppConfig.MailFromEmail,
		}
	}
	return &consoleMailer{}
}

type sendgridMailer struct {
	key       string
	fromName  string
	fromEmail string
}

func (m *sendgridMailer) Send(msg Message) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("panic recovered in mailer goroutine")
			}
		}()

		from := sgmail.NewEmail(m.fromName, m.fromEmail)
		to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
		mail := sgmail.NewSingleEmail(from, msg.Subject, to, msg.TextContent, msg.HTMLContent)

		req := sendgrid.GetRequest(m.key, "/v3/mail/send", "https://api.sendgrid.com")
		req.Method = http.MethodPost
		req.Body = sgmail.GetRequestBody(mail)

		res, err := sendgrid.API(req)
		if err != nil {
			logrus.WithError(err).WithField("to", msg.ToEmail).Error("Failed to send email")
			return
		}
		if res.StatusCode >= http.StatusBadRequest {
			logrus.WithFields(logrus.Fields{
				"to":     msg.ToEmail,
				"status": res.StatusCode,
				"body":   res.Body,
			}).Error("SendGrid rejected email")
		}
	}()
}

type consoleMailer struct{}

func (m *consoleMailer) Send(msg Message) {
	logrus.WithFields(logrus.Fields{
		"to":      msg.ToEmail,
		"subject": msg.Subject,
		"body":    msg.TextContent,
	}).Info("Email (console mailer)")
}
