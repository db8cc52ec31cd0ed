package graph

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCredential hands out a fixed token and counts how often it was asked.
type fakeCredential struct {
	token     string
	expiresOn time.Time
	err       error

	mu       sync.Mutex
	calls    int
	requests []policy.TokenRequestOptions
}

func newFakeCredential(token string) *fakeCredential {
	return &fakeCredential{token: token, expiresOn: time.Now().Add(time.Hour)}
}

func (f *fakeCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, opts)
	if f.err != nil {
		return azcore.AccessToken{}, f.err
	}
	return azcore.AccessToken{Token: f.token, ExpiresOn: f.expiresOn}, nil
}

func (f *fakeCredential) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func credentialFactory(cred azcore.TokenCredential) CredentialFactory {
	return func(Settings, DeviceCodePrompter, *http.Client) (azcore.TokenCredential, error) {
		return cred, nil
	}
}

var noPrompt = PrompterFunc(func(context.Context, DeviceCode) error {
	return errors.New("unexpected device code prompt")
})

func testSettings(scopes ...string) *Settings {
	if len(scopes) == 0 {
		scopes = []string{"User.Read", "Mail.Read", "Mail.Send", "Calendars.ReadWrite"}
	}
	return &Settings{
		ClientID:        "11111111-2222-3333-4444-555555555555",
		TenantID:        "common",
		GraphUserScopes: scopes,
	}
}

// newGraphServer starts a TLS server standing in for Graph and returns the
// options that route a session to it.
func newGraphServer(t *testing.T, handler http.Handler, cred azcore.TokenCredential) (*httptest.Server, []Option) {
	t.Helper()
	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)
	return srv, []Option{
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithCredentialFactory(credentialFactory(cred)),
	}
}

func newTestSession(t *testing.T, handler http.Handler, cred azcore.TokenCredential) *Session {
	t.Helper()
	_, opts := newGraphServer(t, handler, cred)
	s, err := NewSession(testSettings(), noPrompt, opts...)
	require.NoError(t, err)
	return s
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// countingHandler records every request it sees and fails the test if any arrive.
type countingHandler struct {
	mu    sync.Mutex
	count int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	h.count++
	h.mu.Unlock()
	w.WriteHeader(http.StatusInternalServerError)
}

func (h *countingHandler) requests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// readBody returns the request body, inflating it when the client gzipped it.
func readBody(t *testing.T, r *http.Request) []byte {
	t.Helper()
	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if !assert.NoError(t, err) {
			return nil
		}
		defer zr.Close()
		body = zr
	}
	raw, err := io.ReadAll(body)
	assert.NoError(t, err)
	return raw
}
