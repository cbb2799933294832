package recaptcha

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultVerifyURL is Google's siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// ErrVerificationFailed is returned when Google rejects the token.
var ErrVerificationFailed = errors.New("recaptcha verification failed")

// VerifyResponse mirrors the siteverify response body.
type VerifyResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Client verifies reCAPTCHA tokens.
type Client struct {
	http      *resty.Client
	verifyURL string
}

func NewClient(verifyURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(verifyURL) == "" {
		verifyURL = DefaultVerifyURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: resty.New().
			SetHeader("User-Agent", "galata-backend/1.0").
			SetTimeout(timeout),
		verifyURL: verifyURL,
	}
}

// Verify checks token against secret. A transport failure or non-2xx status is
// returned as a plain error; a rejected token wraps ErrVerificationFailed.
func (c *Client) Verify(ctx context.Context, secret, token, remoteIP string) error {
	form := map[string]string{
		"secret":   secret,
		"response": token,
	}
	if remoteIP != "" {
		form["remoteip"] = remoteIP
	}

	var result VerifyResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&result).
		Post(c.verifyURL)
	if err != nil {
		return fmt.Errorf("calling recaptcha siteverify: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("recaptcha siteverify error (status %d)", resp.StatusCode())
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrVerificationFailed, strings.Join(result.ErrorCodes, ","))
	}
	return nil
}
