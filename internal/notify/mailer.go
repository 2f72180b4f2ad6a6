package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/playbud/booking/lib/logger/sl"
	"github.com/wneessen/go-mail"
)

type MailerOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
	Timeout  time.Duration
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (o MailerOptions) Enabled() bool {
	return o.Host != "" && o.Username != "" && o.Password != "" && o.From != ""
}

type transport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Mailer struct {
	log    *slog.Logger
	opts   MailerOptions
	client transport
	now    func() time.Time
}

// NewMailer returns a mailer over implicit-TLS SMTP. With incomplete
// options the mailer stays disabled and every Send returns false.
func NewMailer(opts MailerOptions, log *slog.Logger) (*Mailer, error) {
	m := &Mailer{log: log, opts: opts, now: time.Now}
	if !opts.Enabled() {
		return m, nil
	}

	clientOpts := []mail.Option{
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(opts.Username),
		mail.WithPassword(opts.Password),
	}
	if opts.Port > 0 {
		clientOpts = append(clientOpts, mail.WithPort(opts.Port))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(opts.Timeout))
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, err
	}
	m.client = client
	return m, nil
}

func (m *Mailer) Enabled() bool {
	return m.client != nil
}

func (m *Mailer) Send(ctx context.Context, msg Message) bool {
	const op = "notify.Mailer.Send"

	log := m.log.With(
		slog.String("op", op),
		slog.String("kind", string(msg.Kind)),
	)

	if m.client == nil {
		log.Debug("mail disabled, skipping")
		return false
	}
	if msg.Recipient.Email == "" {
		log.Warn("recipient has no email", slog.String("user_id", msg.Recipient.UserID.String()))
		return false
	}

	rendered, err := Render(msg, m.opts.BaseURL, m.now())
	if err != nil {
		log.Error("failed to render email", sl.Err(err))
		return false
	}

	mm := mail.NewMsg()
	if err := mm.From(m.opts.From); err != nil {
		log.Error("invalid from address", sl.Err(err))
		return false
	}
	if err := mm.To(msg.Recipient.Email); err != nil {
		log.Warn("invalid recipient address", sl.Err(err))
		return false
	}
	mm.Subject(rendered.Subject)
	mm.SetBodyString(mail.TypeTextPlain, rendered.Text)
	mm.AddAlternativeString(mail.TypeTextHTML, rendered.HTML)

	if err := m.client.DialAndSendWithContext(ctx, mm); err != nil {
		log.Error("failed to send email", sl.Err(err))
		return false
	}

	log.Info("email sent", slog.String("subject", rendered.Subject))
	return true
}
