package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/internal/logger"
	"github.com/Alpho052/career-guidance-platform/internal/tasks"
)

const VerificationSubject = "Verify Your Email - Career Platform Lesotho"

var verificationTmpl = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; padding: 20px; border: 1px solid #eee; border-radius: 10px;">
  <h2 style="color: #2c5aa0;">Verify Your Email</h2>
  <p>Thank you for joining <strong>Career Platform Lesotho</strong>!</p>
  <p>Your verification code is:</p>
  <div style="text-align:center;margin:30px 0;">
    <span style="font-size:32px;font-weight:bold;color:#2c5aa0;">{{.Code}}</span>
  </div>
  <p>Please enter this code on the website to verify your account.</p>
  <br>
  <p>Best regards,<br><strong>Career Platform Team</strong></p>
</div>`))

// Transport sends one rendered message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer sends account emails.
type Mailer interface {
	SendVerification(ctx context.Context, email, code string) error
}

// VerificationMessage renders the verification email for code.
func VerificationMessage(email, code string) (Message, error) {
	var buf bytes.Buffer
	if err := verificationTmpl.Execute(&buf, struct{ Code string }{code}); err != nil {
		return Message{}, err
	}
	return Message{
		To:      []Address{{Email: email}},
		Subject: VerificationSubject,
		Text:    fmt.Sprintf("Your Career Platform verification code is %s", code),
		HTML:    buf.String(),
	}, nil
}

// Direct renders and sends through a Transport in the caller's goroutine.
type Direct struct {
	transport Transport
}

func NewDirect(t Transport) *Direct { return &Direct{transport: t} }

func (d *Direct) SendVerification(ctx context.Context, email, code string) error {
	msg, err := VerificationMessage(email, code)
	if err != nil {
		return err
	}
	return d.transport.Send(ctx, msg)
}

// LogTransport writes messages to the log instead of sending them. It is
// used when no SendGrid key is configured.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(l *zap.Logger) *LogTransport {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogTransport{logger: l}
}

func (l *LogTransport) Send(ctx context.Context, msg Message) error {
	to := ""
	if len(msg.To) > 0 {
		to = logger.MaskEmail(msg.To[0].Email)
	}
	l.logger.Info("email not sent, no mail transport configured", zap.String("to", to), zap.String("subject", msg.Subject))
	return nil
}

// VerificationPayload is the body of a tasks.TypeMailVerification task.
type VerificationPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Queued hands verification emails to the task queue.
type Queued struct {
	submitter tasks.Submitter
}

func NewQueued(s tasks.Submitter) *Queued { return &Queued{submitter: s} }

func (q *Queued) SendVerification(ctx context.Context, email, code string) error {
	return q.submitter.Submit(ctx, tasks.TypeMailVerification, VerificationPayload{Email: email, Code: code})
}

// TaskHandler delivers queued verification emails through m.
func TaskHandler(m Mailer) tasks.Handler {
	return func(ctx context.Context, t *tasks.Task) error {
		var p VerificationPayload
		if err := t.Decode(&p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		return m.SendVerification(ctx, p.Email, p.Code)
	}
}
