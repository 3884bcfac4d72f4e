// Package notify delivers conflict alerts to admins.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"holiday-booking/internal/conflict"
)

const postmarkURL = "https://api.postmarkapp.com/email"

// Email sends conflict alerts through the Postmark API.
type Email struct {
	serverToken string
	fromEmail   string
	toEmail     string
	baseURL     string
	endpoint    string
	httpClient  *http.Client
}

type EmailOption func(*Email)

func WithHTTPClient(c *http.Client) EmailOption {
	return func(e *Email) { e.httpClient = c }
}

// WithEndpoint overrides the Postmark API URL.
func WithEndpoint(url string) EmailOption {
	return func(e *Email) { e.endpoint = url }
}

func NewEmail(serverToken, fromEmail, toEmail, baseURL string, opts ...EmailOption) *Email {
	e := &Email{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		toEmail:     toEmail,
		baseURL:     strings.TrimRight(baseURL, "/"),
		endpoint:    postmarkURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configured reports whether the token and both addresses are set.
func (e *Email) Configured() bool {
	return e.serverToken != "" && e.fromEmail != "" && e.toEmail != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

func (e *Email) NotifyConflictDetected(ctx context.Context, c conflict.Conflict) error {
	if !e.Configured() {
		return fmt.Errorf("email notifier not configured")
	}
	v := conflict.Describe(c)

	var text, body strings.Builder
	text.WriteString("A booking conflict was detected:\n\n")
	body.WriteString("<p>A booking conflict was detected:</p><ul>")
	for _, p := range v.Participants {
		fmt.Fprintf(&text, "- %s %q: %s to %s\n", p.Kind, p.Label, p.Start, p.End)
		fmt.Fprintf(&body, "<li>%s <strong>%s</strong>: %s to %s</li>", p.Kind, html.EscapeString(p.Label), p.Start, p.End)
	}
	body.WriteString("</ul>")
	if e.baseURL != "" {
		link := e.baseURL + "/admin/conflicts"
		fmt.Fprintf(&text, "\nReview it at %s\n", link)
		fmt.Fprintf(&body, `<p><a href="%s">Review conflicts</a></p>`, html.EscapeString(link))
	}

	payload := postmarkEmail{
		From:     e.fromEmail,
		To:       e.toEmail,
		Subject:  fmt.Sprintf("Booking conflict: %s", subjectFor(v)),
		HtmlBody: body.String(),
		TextBody: text.String(),
		Tag:      "booking-conflict",
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", e.serverToken)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}
	return nil
}

func subjectFor(v conflict.View) string {
	labels := make([]string, 0, len(v.Participants))
	for _, p := range v.Participants {
		labels = append(labels, p.Label)
	}
	return strings.Join(labels, " / ")
}
