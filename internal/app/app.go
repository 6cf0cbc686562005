package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/joshuadwray/audition-scoring/internal/auth"
	"github.com/joshuadwray/audition-scoring/internal/config"
	"github.com/joshuadwray/audition-scoring/internal/handlers"
	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/metrics"
	"github.com/joshuadwray/audition-scoring/internal/repository"
	"github.com/joshuadwray/audition-scoring/internal/services"
	"github.com/joshuadwray/audition-scoring/internal/websocket"
)

const (
	maintenanceInterval = time.Minute
	limiterIdle         = 10 * time.Minute
	shutdownTimeout     = 10 * time.Second
)

// App holds all application dependencies
type App struct {
	cfg      *config.Config
	log      logger.Logger
	repo     *repository.Repository
	tokens   *auth.Tokens
	limiter  *auth.PINLimiter
	hub      *websocket.Hub
	handlers *handlers.Handlers
	baseURL  string
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg *config.Config) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	baseURL := resolveBaseURL(cfg.BaseURL, cfg.HTTPAddr, realNetworkProvider{})

	tokens := auth.NewTokens(cfg.TokenTTL)
	limiter := auth.NewPINLimiter(cfg.PINRate, cfg.PINBurst)

	// Change feed and the WebSocket hub relaying it
	feed := websocket.NewFeed(log)
	hub := websocket.New(log, feed)
	hub.Start()

	var (
		m            services.Metrics
		metricsRoute http.Handler
	)
	if cfg.MetricsEnabled {
		prom := metrics.New(hub.ClientCount)
		m, metricsRoute = prom, prom.Handler()
	}

	// Initialize services
	sessionService := services.NewSessionService(log, repo, feed, baseURL)
	groupService := services.NewGroupService(log, repo, feed, m)

	h := handlers.New(handlers.Deps{
		Session:    sessionService,
		Roster:     services.NewRosterService(log, repo, feed),
		Judge:      services.NewJudgeService(log, repo),
		Group:      groupService,
		Submission: services.NewSubmissionService(log, repo, groupService, feed, m),
		Results:    services.NewResultsService(log, repo),
		Access:     services.NewAccessService(log, repo, sessionService, tokens, limiter, m),
		Tokens:     tokens,
		Hub:        hub,
		Store:      repo,
		Log:        log,
		Metrics:    metricsRoute,
	})

	return &App{
		cfg:      cfg,
		log:      log,
		repo:     repo,
		tokens:   tokens,
		limiter:  limiter,
		hub:      hub,
		handlers: h,
		baseURL:  baseURL,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// BaseURL is the externally reachable address used in judge join links
func (a *App) BaseURL() string {
	return a.baseURL
}

// Close releases the database
func (a *App) Close() error {
	return a.repo.Close()
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
// Expired tokens and idle login limiters are swept in the background.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("Server starting", "addr", a.cfg.HTTPAddr, "url", a.baseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		a.maintain(ctx, maintenanceInterval)
		return nil
	})

	return g.Wait()
}

// maintain prunes expired tokens and idle limiters until ctx is done
func (a *App) maintain(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sweep()
		}
	}
}

func (a *App) sweep() {
	tokens := a.tokens.Prune()
	limiters := a.limiter.Sweep(limiterIdle)
	if tokens > 0 || limiters > 0 {
		a.log.Debug("Swept expired state", "tokens", tokens, "limiters", limiters)
	}
}

// resolveBaseURL returns the configured base URL unless it is empty or
// points at localhost, which judges' devices cannot reach. In that case the
// preferred LAN address and the listen port are used.
func resolveBaseURL(configured, addr string, provider networkProvider) string {
	configured = strings.TrimRight(configured, "/")
	if configured != "" && !strings.Contains(configured, "localhost") {
		return configured
	}

	port := "8081"
	if _, p, err := net.SplitHostPort(addr); err == nil && p != "" {
		port = p
	}
	return fmt.Sprintf("http://%s:%s", getPreferredIP(provider), port)
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider is an interface for getting network interfaces (for testing)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

// realNetworkProvider implements networkProvider using actual net package
type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IPv4 address for LAN access, preferring
// private ranges and falling back to localhost
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() || isPrivate172(ip) {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}

// isPrivate172 checks if IP is in 172.16.0.0/12 range
func isPrivate172(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31
	}
	return false
}
