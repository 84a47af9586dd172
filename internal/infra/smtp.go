package infra

import (
	"fmt"
	"net/smtp"
	"strings"

	"backoffice/internal/config"

	"github.com/jordan-wright/email"
)

// LowStockLine is one product in a reorder alert.
type LowStockLine struct {
	SKU          string
	Name         string
	StockOnHand  int
	ReorderLevel int
}

// Mailer sends operational e-mail through the configured SMTP relay.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	to       string
	business string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		to:       cfg.AlertEmail,
		business: cfg.BusinessName,
	}
}

// Enabled is false when no relay or recipient is configured; alerts are then
// only logged.
func (m *Mailer) Enabled() bool {
	return m != nil && m.host != "" && m.to != ""
}

// SendLowStockAlert mails the reorder list to the alert recipient.
func (m *Mailer) SendLowStockAlert(lines []LowStockLine) error {
	if len(lines) == 0 {
		return nil
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{m.to}
	e.Subject = fmt.Sprintf("[%s] %d product(s) at or below reorder level", m.business, len(lines))
	e.Text = []byte(LowStockBody(lines))

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send low stock alert: %w", err)
	}
	return nil
}

// LowStockBody renders the plain-text alert body.
func LowStockBody(lines []LowStockLine) string {
	var b strings.Builder
	b.WriteString("The following products need restocking:\n\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "  %-16s %-40s on hand %4d  (reorder at %d)\n", l.SKU, l.Name, l.StockOnHand, l.ReorderLevel)
	}
	return b.String()
}
