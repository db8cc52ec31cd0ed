package graph

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	kiotaauth "github.com/microsoft/kiota-authentication-azure-go"
	khttp "github.com/microsoft/kiota-http-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	msgraphgocore "github.com/microsoftgraph/msgraph-sdk-go-core"

	"graphtutorial/internal/common/logger"
	"graphtutorial/internal/common/ratelimit"
	"graphtutorial/internal/common/security"
)

// CredentialFactory builds the credential a Session authenticates with.
// The default is NewDeviceCodeCredential.
type CredentialFactory func(settings Settings, prompter DeviceCodePrompter, httpClient *http.Client) (azcore.TokenCredential, error)

type options struct {
	credentialFactory CredentialFactory
	baseURL           string
	httpClient        *http.Client
	limiter           *ratelimit.Limiter
	logger            *slog.Logger
}

// Option customizes how sessions are built.
type Option func(*options)

// WithCredentialFactory replaces the device-code credential, typically in tests.
func WithCredentialFactory(f CredentialFactory) Option {
	return func(o *options) { o.credentialFactory = f }
}

// WithBaseURL points the Graph client at another endpoint, e.g. a national cloud
// or a test server.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets the HTTP client used for Graph and identity requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRateLimiter makes every Graph request wait on l first.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithLogger sets the diagnostic logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{credentialFactory: NewDeviceCodeCredential}
	for _, opt := range opts {
		opt(&o)
	}
	if o.credentialFactory == nil {
		o.credentialFactory = NewDeviceCodeCredential
	}
	return o
}

// NewDeviceCodeCredential creates the interactive device-code credential and
// routes its prompt to prompter.
func NewDeviceCodeCredential(settings Settings, prompter DeviceCodePrompter, httpClient *http.Client) (azcore.TokenCredential, error) {
	opts := &azidentity.DeviceCodeCredentialOptions{
		ClientID: settings.ClientID,
		TenantID: settings.TenantID,
		UserPrompt: func(ctx context.Context, msg azidentity.DeviceCodeMessage) error {
			return prompter.PromptDeviceCode(ctx, DeviceCode{
				UserCode:        msg.UserCode,
				VerificationURL: msg.VerificationURL,
				Message:         msg.Message,
			})
		},
	}
	if httpClient != nil {
		opts.ClientOptions.Transport = httpClient
	}
	return azidentity.NewDeviceCodeCredential(opts)
}

// Session is an immutable (settings, credential, client) triple.
type Session struct {
	settings   Settings
	credential azcore.TokenCredential
	client     *msgraphsdk.GraphServiceClient
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
}

// NewSession validates settings and builds the credential and Graph client.
// No network request is made; sign-in happens on the first token request.
func NewSession(settings *Settings, prompter DeviceCodePrompter, opts ...Option) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if prompter == nil {
		return nil, fmt.Errorf("%w: device code prompter cannot be nil", ErrConfiguration)
	}

	o := buildOptions(opts)
	cfg := settings.clone()

	cred, err := o.credentialFactory(cfg, prompter, o.httpClient)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create credential: %v", ErrConfiguration, err)
	}
	cached := newTokenCache(cred)

	client, err := newGraphClient(cached, cfg.GraphUserScopes, o)
	if err != nil {
		return nil, err
	}

	logger.LogDebug(o.logger, "Graph session created",
		"clientID", security.MaskGUID(cfg.ClientID),
		"tenantID", security.MaskTenant(cfg.TenantID),
		"scopes", strings.Join(cfg.GraphUserScopes, " "))

	return &Session{
		settings:   cfg,
		credential: cached,
		client:     client,
		limiter:    o.limiter,
		logger:     o.logger,
	}, nil
}

func newGraphClient(cred azcore.TokenCredential, scopes []string, o options) (*msgraphsdk.GraphServiceClient, error) {
	authProvider, err := kiotaauth.NewAzureIdentityAuthenticationProviderWithScopes(cred, scopes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create auth provider: %v", ErrConfiguration, err)
	}

	adapter, err := msgraphsdk.NewGraphRequestAdapterWithParseNodeFactoryAndSerializationWriterFactoryAndHttpClient(
		authProvider, nil, nil, graphHTTPClient(o.httpClient))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request adapter: %v", ErrConfiguration, err)
	}
	if o.baseURL != "" {
		adapter.SetBaseUrl(o.baseURL)
	}

	return msgraphsdk.NewGraphServiceClient(adapter), nil
}

// graphHTTPClient runs the Graph middleware pipeline (me-path rewriting,
// redirects, compression, telemetry) over base's transport. The retry handler is
// left out so each operation is a single round trip. base is copied, not modified.
func graphHTTPClient(base *http.Client) *http.Client {
	client := &http.Client{Timeout: 100 * time.Second}
	if base != nil {
		*client = *base
	}
	parent := client.Transport
	if parent == nil {
		parent = http.DefaultTransport
	}

	clientOptions := msgraphsdk.GetDefaultClientOptions()
	var middlewares []khttp.Middleware
	for _, m := range msgraphgocore.GetDefaultMiddlewaresWithOptions(&clientOptions) {
		if _, ok := m.(*khttp.RetryHandler); ok {
			continue
		}
		middlewares = append(middlewares, m)
	}

	client.Transport = khttp.NewCustomTransportWithParentTransport(parent, middlewares...)
	// The redirect middleware follows redirects itself.
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return client
}

// Settings returns a copy of the settings the session was built from.
func (s *Session) Settings() Settings {
	return s.settings.clone()
}

// UserToken returns an access token for the configured scopes. The first call
// triggers the device-code prompt and blocks until the user signs in.
func (s *Session) UserToken(ctx context.Context) (string, error) {
	if s == nil {
		return "", ErrUninitializedSession
	}
	if len(s.settings.GraphUserScopes) == 0 {
		return "", fmt.Errorf("%w: graphUserScopes cannot be empty", ErrConfiguration)
	}

	// EnableCAE matches the Graph client's requests so both share one sign-in.
	tok, err := s.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes:    s.settings.GraphUserScopes,
		EnableCAE: true,
	})
	if err != nil {
		logger.LogError(s.logger, "Token acquisition failed", "error", err)
		return "", newRemoteCallError("get user token", err)
	}

	logger.LogDebug(s.logger, "Access token acquired",
		"token", security.MaskAccessToken(tok.Token),
		"expiresOn", tok.ExpiresOn)
	return tok.Token, nil
}

// wait blocks on the rate limiter, if any, before a Graph request.
func (s *Session) wait(ctx context.Context, op string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter wait: %w", op, err)
	}
	return nil
}

// Manager holds the current Session. Initialize replaces it atomically; each
// operation resolves it once and runs entirely against that snapshot.
type Manager struct {
	opts []Option

	mu      sync.RWMutex
	session *Session
}

// NewManager returns a Manager with no session. opts apply to every session it
// initializes.
func NewManager(opts ...Option) *Manager {
	return &Manager{opts: opts}
}

// Initialize builds a new session and makes it current. On error the previous
// session, if any, stays in place.
func (m *Manager) Initialize(settings *Settings, prompter DeviceCodePrompter) error {
	session, err := NewSession(settings, prompter, m.opts...)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()
	return nil
}

// Session returns the current session or ErrUninitializedSession.
func (m *Manager) Session() (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, ErrUninitializedSession
	}
	return m.session, nil
}

// UserToken is Session.UserToken on the current session.
func (m *Manager) UserToken(ctx context.Context) (string, error) {
	s, err := m.Session()
	if err != nil {
		return "", err
	}
	return s.UserToken(ctx)
}

// CurrentUser is Session.CurrentUser on the current session.
func (m *Manager) CurrentUser(ctx context.Context) (*User, error) {
	s, err := m.Session()
	if err != nil {
		return nil, err
	}
	return s.CurrentUser(ctx)
}

// ListInbox is Session.ListInbox on the current session.
func (m *Manager) ListInbox(ctx context.Context) (*InboxPage, error) {
	s, err := m.Session()
	if err != nil {
		return nil, err
	}
	return s.ListInbox(ctx)
}

// SendMail is Session.SendMail on the current session.
func (m *Manager) SendMail(ctx context.Context, subject, body, recipient string) error {
	s, err := m.Session()
	if err != nil {
		return err
	}
	return s.SendMail(ctx, subject, body, recipient)
}

// CreateEvent is Session.CreateEvent on the current session.
func (m *Manager) CreateEvent(ctx context.Context, req *EventRequest) error {
	s, err := m.Session()
	if err != nil {
		return err
	}
	return s.CreateEvent(ctx, req)
}
