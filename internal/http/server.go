package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"nomadledger/internal/auth"
	"nomadledger/internal/core"
	"nomadledger/internal/log"
	"nomadledger/internal/metrics"
	"nomadledger/internal/middleware/ratelimit"
	"nomadledger/internal/middleware/security"
	"nomadledger/internal/middleware/trace"
	"nomadledger/internal/report"
	"nomadledger/internal/services"
	appweb "nomadledger/web"
)

// Pinger reports whether the document store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the server routes requests to.
type Dependencies struct {
	Ledger   *services.Ledger
	Expenses *services.ExpenseService
	Auth     *auth.Service
	Store    Pinger
	Metrics  *metrics.Metrics
	Logger   *log.Logger

	// ReceiptsDir is served under /receipts/ when receipts are stored locally.
	ReceiptsDir     string
	RateLimit       ratelimit.Config
	ImgOrigins      []string
	MaxReceiptBytes int64
	SecureCookies   bool
}

type Server struct {
	http.Server
	templates *template.Template
	validate  *validator.Validate

	ledger   *services.Ledger
	expenses *services.ExpenseService
	auth     *auth.Service
	store    Pinger
	metrics  *metrics.Metrics
	logger   *log.Logger
	slog     *log.StructuredLogger

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter

	maxReceiptBytes int64
	secureCookies   bool
	started         time.Time
	now             func() time.Time

	shutdownOnce sync.Once
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": core.FormatCurrency,
		"total": func(d decimal.Decimal) string {
			return core.FormatCurrency(d, core.ReportingCurrency)
		},
		"rangeLabel": report.RangeLabel,
		"query":      boundsQuery,
	}
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Dependencies) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	logger := deps.Logger.WithComponent(log.ComponentHTTP)

	t, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	maxReceipt := deps.MaxReceiptBytes
	if maxReceipt <= 0 {
		maxReceipt = 10 << 20
	}
	rlConfig := deps.RateLimit
	if rlConfig.RequestsPerSecond <= 0 {
		rlConfig = ratelimit.DefaultConfig()
	}

	s := &Server{
		templates:       t,
		validate:        newValidator(),
		ledger:          deps.Ledger,
		expenses:        deps.Expenses,
		auth:            deps.Auth,
		store:           deps.Store,
		metrics:         deps.Metrics,
		logger:          logger,
		slog:            log.NewStructuredLogger(logger),
		detector:        security.NewDetector(deps.Logger),
		rateLimiter:     ratelimit.NewLimiter(rlConfig),
		maxReceiptBytes: maxReceipt,
		secureCookies:   deps.SecureCookies,
		started:         time.Now(),
		now:             time.Now,
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)

	mux.HandleFunc("GET /{$}", s.requireSession(s.handleDashboard))
	mux.HandleFunc("GET /ui/overview", s.requireSession(s.handleOverview))

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.Handle("POST /login", limited(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("GET /signup", s.handleSignUpPage)
	mux.Handle("POST /signup", limited(http.HandlerFunc(s.handleSignUp)))
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /expenses/new", s.requireSession(s.handleExpenseForm))
	mux.Handle("POST /expenses", limited(s.requireSession(s.handleCreateExpense)))

	mux.Handle("GET /export.csv", limited(security.NoStore(s.requireSession(s.exportHandler(report.FormatCSV)))))
	mux.Handle("GET /export.pdf", limited(security.NoStore(s.requireSession(s.exportHandler(report.FormatPDF)))))

	if deps.ReceiptsDir != "" {
		files := http.FileServer(http.Dir(deps.ReceiptsDir))
		mux.HandleFunc("GET /receipts/{owner}/{file}", s.requireSession(s.receiptsHandler(files)))
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig(deps.ImgOrigins...))
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP, deps.Logger, deps.Metrics)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.detector.Middleware(tracer.Middleware(headers.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("HTTP server configured",
		"addr", addr,
		"local_receipts", deps.ReceiptsDir != "",
		"rate_limit_rps", rlConfig.RequestsPerSecond)
	return s, nil
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	TooManyRequestsError("Muitas requisições. Tente novamente em instantes.").Write(w)
}

// receiptsHandler serves locally stored receipts to their owner only.
func (s *Server) receiptsHandler(files http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := mustSession(r)
		if r.PathValue("owner") != sess.UserID {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "private, max-age=3600")
		files.ServeHTTP(w, r)
	}
}

// Shutdown stops the background limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.slog.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "", ""))
	}
}
