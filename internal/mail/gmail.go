package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	logx "leetdrip/pkg/logx"
)

// gmailProvider sends via the Gmail API on behalf of the authenticated
// account.
type gmailProvider struct {
	service *gmail.Service
	from    string
	log     logx.Logger
}

func newGmail(ctx context.Context, cfg Config, log logx.Logger) (Provider, error) {
	if strings.TrimSpace(cfg.CredentialsJSON) == "" {
		return nil, errors.New("gmail credentials are required")
	}
	svc, err := gmail.NewService(ctx, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("init gmail service: %w", err)
	}
	return &gmailProvider{service: svc, from: cfg.From, log: log}, nil
}

// sanitizeHeader strips CR, LF, and other control characters. RFC 5322
// headers are newline-delimited, so a newline in a header value would let a
// recipient address inject arbitrary headers.
func sanitizeHeader(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (g *gmailProvider) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	to = sanitizeHeader(to)
	subject = sanitizeHeader(subject)

	raw := base64.URLEncoding.EncodeToString([]byte(buildMIME(g.from, to, subject, htmlBody, textBody)))

	return retry.Do(
		func() error {
			start := time.Now()
			_, err := g.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
			if err != nil {
				g.log.Warn("gmail send failed",
					logx.String("to", to),
					logx.Duration("took", time.Since(start)),
					logx.Err(err),
				)
				return err
			}
			g.log.Debug("gmail send ok",
				logx.String("to", to),
				logx.Duration("took", time.Since(start)),
			)
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			g.log.Info("retrying gmail send", logx.Int("attempt", int(n)), logx.Err(err))
		}),
	)
}

// buildMIME assembles a multipart/alternative message with text and HTML
// parts. The From header is optional; Gmail fills it from the authenticated
// account when absent.
func buildMIME(from, to, subject, htmlBody, textBody string) string {
	const boundary = "leetdrip-alt-boundary"
	var msg strings.Builder
	msg.WriteString("MIME-Version: 1.0\r\n")
	if from != "" {
		msg.WriteString("From: " + sanitizeHeader(from) + "\r\n")
	}
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n\r\n")

	msg.WriteString("--" + boundary + "\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(textBody)
	msg.WriteString("\r\n\r\n--" + boundary + "\r\n")
	msg.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n\r\n--" + boundary + "--\r\n")
	return msg.String()
}
