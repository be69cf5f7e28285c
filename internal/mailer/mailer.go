// Package mailer delivers transactional mail (password resets, order
// confirmations) through the configured SMTP relay. Sends are queued onto
// a small worker pool so request handlers never block on the relay.
package mailer

import (
	"fmt"
	"strings"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/vtryon/lensmart/config"
	"github.com/vtryon/lensmart/internal/domain"
)

type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	siteURL string
	pool    *ants.Pool
}

func New(cfg *config.AppConfig) (*Mailer, error) {
	pool, err := ants.NewPool(8)
	if err != nil {
		return nil, err
	}
	return &Mailer{
		dialer:  gomail.NewDialer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password),
		from:    cfg.Smtp.From,
		siteURL: strings.TrimRight(cfg.Web.SiteURL, "/"),
		pool:    pool,
	}, nil
}

// SendPasswordReset mails the reset link; the link expires in 15 minutes.
func (m *Mailer) SendPasswordReset(to, token string) {
	link := fmt.Sprintf("%s/reset-password/%s", m.siteURL, token)
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset your password")
	msg.SetBody("text/html", fmt.Sprintf(`<h3>Password Reset</h3>
<p>You requested a password reset.</p>
<p><b>This link expires in 15 minutes.</b></p>
<p>Click here: <a href="%s">%s</a></p>
<p>If you did not request this, ignore this email.</p>`, link, link))
	m.submit(msg)
}

// SendOrderConfirmation mails the order summary to the buyer
func (m *Mailer) SendOrderConfirmation(ord *domain.Order, to string) {
	if to == "" {
		return
	}
	var lines strings.Builder
	for _, it := range ord.Items {
		fmt.Fprintf(&lines, "<li>%s × %d — %.2f</li>", it.Title, it.Qty, it.Price*float64(it.Qty))
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Order %d received", ord.ID))
	msg.SetBody("text/html", fmt.Sprintf(`<h3>Thanks for your order</h3>
<ul>%s</ul>
<p>Total: <b>%.2f</b></p>
<p>Payment method: %s</p>
<p>We will email you again when your order ships.</p>`,
		lines.String(), ord.TotalAmount, ord.PaymentMethod))
	m.submit(msg)
}

func (m *Mailer) submit(msg *gomail.Message) {
	to := strings.Join(msg.GetHeader("To"), ",")
	err := m.pool.Submit(func() {
		if err := m.dialer.DialAndSend(msg); err != nil {
			zap.L().Error("mailer: send failed", zap.String("to", to), zap.Error(err))
			return
		}
		zap.L().Info("mailer: sent", zap.String("to", to))
	})
	if err != nil {
		zap.L().Error("mailer: submit failed", zap.Error(err))
	}
}

// Release drains and stops the send pool
func (m *Mailer) Release() {
	m.pool.Release()
}
