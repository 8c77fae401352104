// Package mail delivers account emails through the SendGrid v3 API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/internal/config"
	"github.com/Alpho052/career-guidance-platform/internal/logger"
)

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Message struct {
	From    Address
	To      []Address
	Subject string
	Text    string
	HTML    string
}

type personalization struct {
	To []Address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// HTTPError is a non-2xx answer from SendGrid.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Message)
}

type SendGrid struct {
	cfg        config.MailConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewSendGrid(cfg config.MailConfig, log *zap.Logger) (*SendGrid, error) {
	if strings.TrimSpace(cfg.SendGridAPIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SendGrid{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.With(zap.String("client", "sendgrid")),
	}, nil
}

// Send posts msg to /v3/mail/send. The configured sender is used when msg
// has none.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.From.Email) == "" {
		msg.From = Address{Email: s.cfg.FromEmail, Name: s.cfg.FromName}
	}
	if msg.From.Email == "" {
		return fmt.Errorf("sendgrid: from address required")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("sendgrid: recipient required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("sendgrid: subject required")
	}

	var contents []content
	if t := strings.TrimSpace(msg.Text); t != "" {
		contents = append(contents, content{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(msg.HTML); h != "" {
		contents = append(contents, content{Type: "text/html", Value: h})
	}
	if len(contents) == 0 {
		return fmt.Errorf("sendgrid: text or html content required")
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(sendRequest{
		Personalizations: []personalization{{To: msg.To}},
		From:             msg.From,
		Subject:          msg.Subject,
		Content:          contents,
	}); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v3/mail/send", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.SendGridAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && len(er.Errors) > 0 && er.Errors[0].Message != "" {
			herr.Message = er.Errors[0].Message
		}
		if herr.Message == "" {
			herr.Message = "<empty body>"
		}
		return herr
	}

	s.logger.Debug("email accepted",
		zap.String("to", logger.MaskEmail(msg.To[0].Email)),
		zap.String("message_id", resp.Header.Get("X-Message-Id")),
	)
	return nil
}
