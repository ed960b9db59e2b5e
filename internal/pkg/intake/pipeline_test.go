package intake

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventSite/internal/pkg/ratelimit"
	"github.com/ManuelReschke/EventSite/internal/pkg/turnstile"
)

type stubVerifier struct {
	mu     sync.Mutex
	err    error
	calls  int
	tokens []string
	ips    []string
}

func (s *stubVerifier) Verify(_ context.Context, token, remoteIP string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.tokens = append(s.tokens, token)
	s.ips = append(s.ips, remoteIP)
	return s.err
}

type recordingDispatcher struct {
	mu    sync.Mutex
	got   []Validated
	err   error
	delay time.Duration
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, v Validated) error {
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.got = append(d.got, v)
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.got)
}

type countingLimiter struct {
	allow bool
	calls int
}

func (l *countingLimiter) Allow(context.Context, string) bool {
	l.calls++
	return l.allow
}

func newTestApp(p *Pipeline) *fiber.App {
	app := fiber.New()
	app.All("/submit", p.Handle)
	return app
}

func postJSON(t *testing.T, app *fiber.App, body string) (int, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pipeline-test/1.0")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out Response
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func contactPipeline(v Verifier, l ratelimit.Limiter, d Dispatcher) *Pipeline {
	return New(Options{
		Name:           "contact",
		Limiter:        l,
		Verifier:       v,
		RequireContact: true,
		Dispatcher:     d,
	})
}

const validContact = `{"name":"Jane","email":"jane@example.com","message":"Need a quote","turnstileToken":"valid-token"}`

func TestHandleAcceptsValidSubmission(t *testing.T) {
	verifier := &stubVerifier{}
	dispatcher := &recordingDispatcher{}
	app := newTestApp(contactPipeline(verifier, nil, dispatcher))

	status, body := postJSON(t, app, validContact)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, Response{OK: true}, body)
	require.Equal(t, 1, dispatcher.count())
	got := dispatcher.got[0]
	assert.Equal(t, "Jane", got.Name)
	assert.Equal(t, "pipeline-test/1.0", got.UserAgent)
	assert.NotEmpty(t, got.RemoteAddr)
	assert.Equal(t, []string{"valid-token"}, verifier.tokens)
}

func TestHandleHoneypotIsSilentlyAccepted(t *testing.T) {
	for _, field := range []string{"website", "honeypot"} {
		t.Run(field, func(t *testing.T) {
			verifier := &stubVerifier{}
			limiter := &countingLimiter{allow: true}
			dispatcher := &recordingDispatcher{}
			app := newTestApp(contactPipeline(verifier, limiter, dispatcher))

			body := `{"name":"Bot","email":"bot@example.com","turnstileToken":"t","` + field + `":"https://spam.example"}`
			status, resp := postJSON(t, app, body)

			assert.Equal(t, fiber.StatusOK, status)
			assert.Equal(t, Response{OK: true}, resp)
			assert.Equal(t, 0, dispatcher.count())
			assert.Equal(t, 0, verifier.calls)
			assert.Equal(t, 0, limiter.calls)
		})
	}
}

func TestHandleWhitespaceHoneypotIsABot(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	app := newTestApp(contactPipeline(&stubVerifier{}, nil, dispatcher))

	status, resp := postJSON(t, app, `{"name":"Jane","email":"jane@example.com","turnstileToken":"t","website":" "}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, Response{OK: true}, resp)
	assert.Equal(t, 0, dispatcher.count())
}

func TestHandleRateLimited(t *testing.T) {
	verifier := &stubVerifier{}
	dispatcher := &recordingDispatcher{}
	app := newTestApp(contactPipeline(verifier, &countingLimiter{allow: false}, dispatcher))

	status, resp := postJSON(t, app, validContact)

	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.False(t, resp.OK)
	assert.Equal(t, MsgRateLimited, resp.Error)
	assert.Equal(t, 0, verifier.calls)
	assert.Equal(t, 0, dispatcher.count())
}

func TestHandleSixthRequestFromSameAddressIsLimited(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	app := newTestApp(contactPipeline(&stubVerifier{}, ratelimit.NewMemory(5, 10*time.Minute), dispatcher))

	for i := 0; i < 5; i++ {
		status, _ := postJSON(t, app, validContact)
		require.Equal(t, fiber.StatusOK, status)
	}
	status, _ := postJSON(t, app, validContact)

	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, 5, dispatcher.count())
}

func TestHandleMissingToken(t *testing.T) {
	verifier := &stubVerifier{}
	dispatcher := &recordingDispatcher{}
	app := newTestApp(contactPipeline(verifier, nil, dispatcher))

	for _, body := range []string{
		`{"name":"Jane","email":"jane@example.com"}`,
		`{"name":"Jane","email":"jane@example.com","turnstileToken":"   "}`,
	} {
		status, resp := postJSON(t, app, body)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, MsgCaptchaRequired, resp.Error)
	}
	assert.Equal(t, 0, verifier.calls)
	assert.Equal(t, 0, dispatcher.count())
}

func TestHandleCaptchaFailures(t *testing.T) {
	for name, err := range map[string]error{
		"rejected":       turnstile.ErrVerificationFailed,
		"network error":  turnstile.ErrServiceUnavailable,
		"missing secret": turnstile.ErrMissingSecret,
	} {
		t.Run(name, func(t *testing.T) {
			dispatcher := &recordingDispatcher{}
			app := newTestApp(contactPipeline(&stubVerifier{err: err}, nil, dispatcher))

			status, resp := postJSON(t, app, validContact)

			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, MsgCaptchaFailed, resp.Error)
			assert.Equal(t, 0, dispatcher.count())
		})
	}
}

func TestHandleNilVerifierFailsClosed(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	app := newTestApp(contactPipeline(nil, nil, dispatcher))

	status, resp := postJSON(t, app, validContact)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, MsgCaptchaFailed, resp.Error)
	assert.Equal(t, 0, dispatcher.count())
}

func TestHandleRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing name", body: `{"email":"jane@example.com","turnstileToken":"t"}`, want: MsgNameRequired},
		{name: "blank name", body: `{"name":"   ","email":"jane@example.com","turnstileToken":"t"}`, want: MsgNameRequired},
		{name: "missing email", body: `{"name":"Jane","turnstileToken":"t"}`, want: MsgEmailRequired},
		{name: "blank email", body: `{"name":"Jane","email":"\t","turnstileToken":"t"}`, want: MsgEmailRequired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dispatcher := &recordingDispatcher{}
			app := newTestApp(contactPipeline(&stubVerifier{}, nil, dispatcher))

			status, resp := postJSON(t, app, tc.body)

			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, tc.want, resp.Error)
			assert.Equal(t, 0, dispatcher.count())
		})
	}
}

func TestHandleNoFormatValidation(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	app := newTestApp(contactPipeline(&stubVerifier{}, nil, dispatcher))

	status, _ := postJSON(t, app, `{"name":"J","email":"not-an-email","phone":"call me maybe","turnstileToken":"t"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, dispatcher.count())
}

func TestHandleDispatchFailureIsGeneric(t *testing.T) {
	dispatcher := &recordingDispatcher{err: errors.New("dial tcp 10.0.0.5:587: connection refused")}
	app := newTestApp(contactPipeline(&stubVerifier{}, nil, dispatcher))

	status, resp := postJSON(t, app, validContact)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, MsgInternalError, resp.Error)
	assert.NotContains(t, resp.Error, "10.0.0.5")
}

func TestHandleDispatchTimeout(t *testing.T) {
	dispatcher := &recordingDispatcher{delay: time.Second}
	p := New(Options{
		Name:            "quote",
		Verifier:        &stubVerifier{},
		Dispatcher:      dispatcher,
		DispatchTimeout: 20 * time.Millisecond,
	})
	app := newTestApp(p)

	status, resp := postJSON(t, app, validContact)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, MsgInternalError, resp.Error)
}

func TestHandleMethodNotAllowedRunsNoGuard(t *testing.T) {
	verifier := &stubVerifier{}
	limiter := &countingLimiter{allow: true}
	dispatcher := &recordingDispatcher{}
	app := newTestApp(contactPipeline(verifier, limiter, dispatcher))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/submit", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, fiber.MethodPost, resp.Header.Get("Allow"))
	}
	assert.Equal(t, 0, limiter.calls)
	assert.Equal(t, 0, verifier.calls)
	assert.Equal(t, 0, dispatcher.count())
}

func TestHandleInvalidBody(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	app := newTestApp(contactPipeline(&stubVerifier{}, nil, dispatcher))

	for _, body := range []string{``, `not json`, `{"services": 12}`} {
		status, resp := postJSON(t, app, body)
		assert.Equal(t, fiber.StatusBadRequest, status, body)
		assert.Equal(t, MsgInvalidBody, resp.Error)
	}
	assert.Equal(t, 0, dispatcher.count())
}

func TestHandleIdenticalSubmissionsAreNotDeduplicated(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	app := newTestApp(contactPipeline(&stubVerifier{}, nil, dispatcher))

	for i := 0; i < 2; i++ {
		status, _ := postJSON(t, app, validContact)
		require.Equal(t, fiber.StatusOK, status)
	}
	assert.Equal(t, 2, dispatcher.count())
}

func TestHandleSkipCaptcha(t *testing.T) {
	verifier := &stubVerifier{err: turnstile.ErrMissingSecret}
	dispatcher := &recordingDispatcher{}
	app := newTestApp(New(Options{Name: "quote", Verifier: verifier, SkipCaptcha: true, Dispatcher: dispatcher}))

	status, _ := postJSON(t, app, `{"name":"Jane"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0, verifier.calls)
	assert.Equal(t, 1, dispatcher.count())
}

func TestHandleUsesClientIPResolver(t *testing.T) {
	verifier := &stubVerifier{}
	limiter := ratelimit.NewMemory(1, time.Minute)
	app := newTestApp(New(Options{
		Name:       "contact",
		Limiter:    limiter,
		Verifier:   verifier,
		Dispatcher: &recordingDispatcher{},
		ClientIP:   func(c *fiber.Ctx) string { return c.Get("CF-Connecting-IP") },
	}))

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(validContact))
	req.Header.Set("CF-Connecting-IP", "198.51.100.23")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"198.51.100.23"}, verifier.ips)
	_, tracked := limiter.Lookup("198.51.100.23")
	assert.True(t, tracked)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) Observe(_ context.Context, form, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, form+":"+outcome)
}

func TestHandleReportsOutcomes(t *testing.T) {
	observer := &recordingObserver{}
	dispatcher := &recordingDispatcher{}
	app := newTestApp(New(Options{
		Name:           "contact",
		Verifier:       &stubVerifier{},
		RequireContact: true,
		Dispatcher:     dispatcher,
		Observer:       observer,
	}))

	postJSON(t, app, validContact)
	postJSON(t, app, `{"website":"spam"}`)
	postJSON(t, app, `{"name":"Jane"}`)
	postJSON(t, app, `nope`)
	dispatcher.err = errors.New("smtp down")
	postJSON(t, app, validContact)

	assert.Equal(t, []string{
		"contact:accepted",
		"contact:honeypot",
		"contact:captcha_missing",
		"contact:invalid_body",
		"contact:dispatch_failed",
	}, observer.outcomes)
}
