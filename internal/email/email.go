// Package email delivers transactional mail through the Resend HTTP API.
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mailer sends the welcome mail carrying the email-verification link.
type Mailer interface {
	SendWelcomeEmail(to, name, verificationCode string) error
}

// DispatchHook observes the outcome of each dispatch attempt. Delivery is
// best-effort; the hook is how failures become visible without changing
// the caller-facing result.
type DispatchHook func(to string, err error)

const defaultEndpoint = "https://api.resend.com/emails"

// ResendMailer implements Mailer over the Resend REST API.
type ResendMailer struct {
	apiKey        string
	from          string
	verifyBaseURL string
	endpoint      string
	client        *http.Client
}

// NewResendMailer creates a Mailer posting to the Resend API. verifyBaseURL
// is the public URL the verification code is appended to.
func NewResendMailer(apiKey, from, verifyBaseURL string) *ResendMailer {
	return &ResendMailer{
		apiKey:        apiKey,
		from:          from,
		verifyBaseURL: verifyBaseURL,
		endpoint:      defaultEndpoint,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

// SetEndpoint overrides the API endpoint. Tests point it at a local server.
func (m *ResendMailer) SetEndpoint(endpoint string) {
	m.endpoint = endpoint
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendWelcomeEmail sends the welcome mail with the verification link.
func (m *ResendMailer) SendWelcomeEmail(to, name, verificationCode string) error {
	body := sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: "Bem-vindo!",
		HTML: fmt.Sprintf(
			"<h1>Olá, %s!</h1><p>Bem-vindo à nossa plataforma!</p><p><a href=%q>Confirme seu email</a></p>",
			name, fmt.Sprintf("%s?code=%s", m.verifyBaseURL, verificationCode),
		),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email dispatch failed: %s: %s", resp.Status, msg)
	}
	return nil
}
