package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/cw-satou/astral-backend/internal/domain"
	"github.com/cw-satou/astral-backend/internal/pkg/envutil"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
)

// MailService submits the order-notification mail over SMTP. Delivery is
// best-effort at every call site: failures are logged and swallowed by the
// orchestrator, never surfaced to the HTTP caller.
type MailService interface {
	SendOrderMail(ctx context.Context, diagnosisID string, summary domain.OrderSummary) error
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	To       string
	From     string
}

func MailConfigFromEnv() MailConfig {
	user := envutil.Str("SMTP_USER", "")
	return MailConfig{
		Host:     envutil.Str("SMTP_HOST", ""),
		Port:     envutil.Int("SMTP_PORT", 587),
		User:     user,
		Password: envutil.Str("SMTP_PASS", ""),
		To:       envutil.Str("ORDER_MAIL_TO", "cw.satou@gmail.com"),
		From:     envutil.Str("ORDER_MAIL_FROM", user),
	}
}

func NewMailService(log *logger.Logger, cfg MailConfig) MailService {
	return &mailService{log: log.With("service", "MailService"), cfg: cfg}
}

type mailService struct {
	log *logger.Logger
	cfg MailConfig
}

// configured reports whether enough SMTP settings exist to attempt a send.
// An unconfigured mailer is not an error: the original deployment ran
// without mail in development.
func (m *mailService) configured() bool {
	return m.cfg.Host != "" && m.cfg.User != "" && m.cfg.Password != ""
}

func (m *mailService) SendOrderMail(ctx context.Context, diagnosisID string, summary domain.OrderSummary) error {
	if !m.configured() {
		m.log.Warn("SMTP settings not fully configured; order mail not sent",
			"diagnosis_id", diagnosisID)
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(fmt.Sprintf("【星の羅針盤】オーダー通知 #%s", diagnosisID))
	msg.SetBodyString(gomail.TypeTextPlain, orderMailBody(diagnosisID, summary, time.Now()))

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.User),
		gomail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	m.log.Info("order mail sent", "diagnosis_id", diagnosisID)
	return nil
}

func orderMailBody(diagnosisID string, summary domain.OrderSummary, now time.Time) string {
	var b strings.Builder
	b.WriteString("星の羅針盤へのオーダーが確定しました。\n\n")
	fmt.Fprintf(&b, "【診断ID】\n%s\n\n", diagnosisID)
	fmt.Fprintf(&b, "【オーダー内容】\n%s\n\n%s\n\n", summary.OrderLine, summary.InternalNote)
	fmt.Fprintf(&b, "【送信時刻】\n%s\n\n", now.Format("2006年01月02日 15:04:05"))
	b.WriteString("---\n星の羅針盤 - 占い×アクセサリー\n")
	return b.String()
}
