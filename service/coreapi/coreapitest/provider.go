// Package coreapitest runs an in-process fake of the mobile money provider for tests.
package coreapitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/antinvestor/momo-api/config"
	"github.com/gorilla/mux"
)

const (
	APIUser                     = "3e4f0a52-51b0-4a6e-9d7b-5ad5f3c0f3a1"
	APIKey                      = "test-api-key"
	CollectionSubscriptionKey   = "collection-key"
	DisbursementSubscriptionKey = "disbursement-key"
)

// Call is one request received by the fake provider.
type Call struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the call body into out.
func (c Call) JSON(t testing.TB, out any) {
	t.Helper()
	if err := json.Unmarshal(c.Body, out); err != nil {
		t.Fatalf("could not decode body of %s %s: %v", c.Method, c.Path, err)
	}
}

type Provider struct {
	Server *httptest.Server
	Router *mux.Router

	mu       sync.Mutex
	calls    []Call
	handlers map[string]http.HandlerFunc
	tokenSeq int
}

// New starts a provider that issues product tokens valid for an hour. It is closed when the
// test ends.
func New(t testing.TB) *Provider {
	t.Helper()

	p := &Provider{
		Router:   mux.NewRouter(),
		handlers: map[string]http.HandlerFunc{},
	}
	p.Router.Use(p.record)
	p.Router.NotFoundHandler = p.record(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		Respond(http.StatusNotFound, `{"code":"RESOURCE_NOT_FOUND","message":"Requested resource was not found."}`)(w, nil)
	}))

	p.Handle(http.MethodPost, "/collection/token/", p.issueToken)
	p.Handle(http.MethodPost, "/disbursement/token/", p.issueToken)

	p.Server = httptest.NewServer(p.Router)
	t.Cleanup(p.Server.Close)
	return p
}

// Handle installs h for method and path, replacing any earlier handler of the same route.
// Paths use gorilla/mux templates.
func (p *Provider) Handle(method, path string, h http.HandlerFunc) {
	key := method + " " + path

	p.mu.Lock()
	_, registered := p.handlers[key]
	p.handlers[key] = h
	p.mu.Unlock()

	if registered {
		return
	}
	p.Router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		current := p.handlers[key]
		p.mu.Unlock()
		current(w, r)
	}).Methods(method)
}

// Respond writes a fixed status and body.
func Respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// RespondJSON writes v as a JSON body.
func RespondJSON(status int, v any) http.HandlerFunc {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Respond(status, string(body))
}

// Sequence answers successive calls with the given handlers, repeating the last one.
func Sequence(handlers ...http.HandlerFunc) http.HandlerFunc {
	var mu sync.Mutex
	next := 0
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := handlers[next]
		if next < len(handlers)-1 {
			next++
		}
		mu.Unlock()
		h(w, r)
	}
}

// TokenResponder issues a fresh token lasting expiresIn seconds on every call.
func (p *Provider) TokenResponder(expiresIn time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != APIUser || pass != APIKey {
			Respond(http.StatusUnauthorized, `{"error":"login_failed","error_description":"Access denied due to invalid subscription key."}`)(w, r)
			return
		}
		p.mu.Lock()
		p.tokenSeq++
		seq := p.tokenSeq
		p.mu.Unlock()

		RespondJSON(http.StatusOK, map[string]any{
			"access_token": fmt.Sprintf("token-%d", seq),
			"token_type":   "access_token",
			"expires_in":   int64(expiresIn.Seconds()),
		})(w, r)
	}
}

func (p *Provider) issueToken(w http.ResponseWriter, r *http.Request) {
	p.TokenResponder(time.Hour)(w, r)
}

func (p *Provider) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		p.mu.Lock()
		p.calls = append(p.calls, Call{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		p.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// Calls returns every recorded call.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallsTo returns the calls whose path starts with prefix.
func (p *Provider) CallsTo(method, prefix string) []Call {
	var out []Call
	for _, c := range p.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// LastCall returns the most recent call to path prefix, failing the test when none exists.
func (p *Provider) LastCall(t testing.TB, method, prefix string) Call {
	t.Helper()
	calls := p.CallsTo(method, prefix)
	if len(calls) == 0 {
		t.Fatalf("no %s call to %s recorded", method, prefix)
	}
	return calls[len(calls)-1]
}

// Config returns a provisioned sandbox configuration pointing at the fake provider.
func (p *Provider) Config() config.MomoConfig {
	return config.MomoConfig{
		BaseURL:                     p.Server.URL,
		TargetEnvironment:           config.EnvironmentSandbox,
		CollectionSubscriptionKey:   CollectionSubscriptionKey,
		DisbursementSubscriptionKey: DisbursementSubscriptionKey,
		CallbackHost:                "callbacks.example.com",
		APIUser:                     APIUser,
		APIKey:                      APIKey,
		Currency:                    config.SandboxCurrency,
		CountryCode:                 "260",
		KYCProduct:                  config.ProductDisbursement,
		DisbursementPrefixes:        []string{"76", "96"},
		StatusSettleDelay:           time.Millisecond,
		StatusPollTimeout:           5 * time.Second,
		RequestTimeout:              5 * time.Second,
		InvoiceValidity:             360,
		LogLevel:                    "debug",
	}
}

// Client returns an http client bound to the fake provider.
func (p *Provider) Client() *http.Client {
	return p.Server.Client()
}
