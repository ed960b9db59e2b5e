package turnstile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

var (
	ErrMissingToken        = errors.New("turnstile token is empty")
	ErrMissingSecret       = errors.New("turnstile secret is not set")
	ErrVerificationFailed  = errors.New("turnstile validation failed")
	ErrServiceUnavailable  = errors.New("turnstile verification service unavailable")
	errUnexpectedStatus    = errors.New("unexpected status from siteverify")
	defaultVerifierTimeout = 5 * time.Second
)

type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
	Action      string   `json:"action"`
}

type Config struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

// Verifier talks to the siteverify endpoint.
type Verifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

func NewVerifier(cfg Config) *Verifier {
	verifyURL := cfg.VerifyURL
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultVerifierTimeout
	}
	return &Verifier{
		secret:    cfg.Secret,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a secret is present.
func (v *Verifier) Configured() bool {
	return v.secret != ""
}

// Verify returns nil only when siteverify answered 2xx with success=true.
// A missing secret fails closed.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return ErrMissingToken
	}
	if v.secret == "" {
		return ErrMissingSecret
	}

	formData := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}
	if remoteIP != "" {
		formData.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %w %d", ErrServiceUnavailable, errUnexpectedStatus, resp.StatusCode)
	}

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("%w: failed to decode siteverify response: %v", ErrServiceUnavailable, err)
	}

	if !response.Success {
		if len(response.ErrorCodes) > 0 {
			return fmt.Errorf("%w: %s", ErrVerificationFailed, strings.Join(response.ErrorCodes, ", "))
		}
		return ErrVerificationFailed
	}

	return nil
}
