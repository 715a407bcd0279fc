package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"

	"garden-monitor/internal/config"
	"garden-monitor/internal/logging"
)

var emailBodyTmpl = template.Must(template.New("alert-email").Parse(`{{.Message}}

Metric: {{.Metric}}
Current value: {{.Value}}{{.Unit}}
Threshold: {{if .Threshold}}{{.Threshold}}{{else}}N/A{{end}}
Time: {{.ReceivedAt.Format "2006-01-02 15:04:05 MST"}}

---
Garden Monitor
`))

// EmailProvider returns a Provider that emails newly-appeared alerts to
// the configured recipient. Disabled settings or a missing recipient make
// it a no-op; SMTP being unconfigured downgrades to a debug log so a dev
// setup without mail credentials still runs the full pipeline.
func EmailProvider(cfg config.Config, settings *SettingsStore, log *logging.Logger) Provider {
	return func(ctx context.Context, task Task) error {
		s := settings.LoadEmail(ctx)
		if !s.Enabled || s.RecipientEmail == "" {
			return nil
		}

		subject := fmt.Sprintf("[Garden Alert] %s: %s", task.Alert.Metric, task.Alert.Message)
		var body bytes.Buffer
		if err := emailBodyTmpl.Execute(&body, task.Alert); err != nil {
			return fmt.Errorf("failed to render email body: %w", err)
		}

		if cfg.Email.SMTPServer == "" || cfg.Email.SMTPPort == 0 || cfg.Email.Username == "" {
			log.Debugf("SMTP not configured, skipping email for alert %s", task.Alert.ID)
			return nil
		}

		from := cfg.Email.Username
		if cfg.Email.FromName != "" {
			from = fmt.Sprintf("%s <%s>", cfg.Email.FromName, cfg.Email.Username)
		}
		message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
			from, s.RecipientEmail, subject, body.String())

		auth := smtp.PlainAuth("", cfg.Email.Username, cfg.Email.Password, cfg.Email.SMTPServer)
		addr := fmt.Sprintf("%s:%d", cfg.Email.SMTPServer, cfg.Email.SMTPPort)
		if err := smtp.SendMail(addr, auth, cfg.Email.Username, []string{s.RecipientEmail}, []byte(message)); err != nil {
			return fmt.Errorf("failed to send email to %s: %w", s.RecipientEmail, err)
		}

		log.Infof("Alert email sent to %s for alert %s", s.RecipientEmail, task.Alert.ID)
		return nil
	}
}
