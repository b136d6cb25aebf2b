package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/MrEthical07/prepwise"
	"github.com/MrEthical07/prepwise/identity"
	"github.com/MrEthical07/prepwise/internal/logging"
	"github.com/MrEthical07/prepwise/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxFormBytes = 64 << 10

// Auth is the part of *prepwise.Engine the handlers use.
type Auth interface {
	middleware.SessionResolver
	Register(ctx context.Context, req prepwise.RegisterRequest) prepwise.Result
	SignIn(ctx context.Context, jar prepwise.CookieJar, req prepwise.SignInRequest) prepwise.Result
	SignOut(ctx context.Context, jar prepwise.CookieJar) prepwise.Result
}

// Accounts is the credential verifier as the forms use it.
// *identity.Verifier satisfies it.
type Accounts interface {
	CreateUser(ctx context.Context, email, password string) (identity.Account, error)
	SignInWithPassword(ctx context.Context, email, password string) (string, error)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Options configures a Server. Auth and Accounts are required.
type Options struct {
	Auth     Auth
	Accounts Accounts
	Logger   logging.Logger

	SignInPath   string
	CookieSecure bool
	TrustProxy   bool

	// Metrics is mounted at MetricsPath when both are set.
	Metrics     http.Handler
	MetricsPath string

	HealthChecks map[string]HealthCheck
}

// Server holds parsed templates and collaborators. It is safe for
// concurrent use.
type Server struct {
	auth     Auth
	accounts Accounts
	log      logging.Logger

	signInPath   string
	cookieSecure bool
	trustProxy   bool
	metrics      http.Handler
	metricsPath  string
	checks       map[string]HealthCheck

	pages map[string]*template.Template
}

// New parses the templates and returns a Server.
func New(opts Options) (*Server, error) {
	if opts.Auth == nil {
		return nil, errors.New("web: auth is required")
	}
	if opts.Accounts == nil {
		return nil, errors.New("web: accounts is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.SignInPath == "" {
		opts.SignInPath = prepwise.DefaultSignInPath
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &Server{
		auth:         opts.Auth,
		accounts:     opts.Accounts,
		log:          opts.Logger.With("module", "web"),
		signInPath:   opts.SignInPath,
		cookieSecure: opts.CookieSecure,
		trustProxy:   opts.TrustProxy,
		metrics:      opts.Metrics,
		metricsPath:  opts.MetricsPath,
		checks:       opts.HealthChecks,
		pages:        pages,
	}, nil
}

// Handler returns the routed application.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	guard := middleware.RequireSession(s.auth, s.signInPath)
	authPage := middleware.RedirectIfAuthenticated(s.auth, "/")

	mux.Handle("GET /sign-in", authPage(http.HandlerFunc(s.signInPage)))
	mux.Handle("GET /sign-up", authPage(http.HandlerFunc(s.signUpPage)))
	mux.HandleFunc("POST /sign-in", s.signIn)
	mux.HandleFunc("POST /sign-up", s.signUp)
	mux.HandleFunc("POST /sign-out", s.signOut)

	mux.Handle("GET /{$}", guard(http.HandlerFunc(s.home)))
	mux.Handle("GET /interview", guard(http.HandlerFunc(s.interview)))

	mux.HandleFunc("GET /healthz", s.healthz)
	if s.metrics != nil && s.metricsPath != "" {
		mux.Handle("GET "+s.metricsPath, s.metrics)
	}

	return middleware.RequestContext(s.trustProxy)(s.accessLog(mux))
}
