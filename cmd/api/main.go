package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ovenhouse/backend-pizzeria/internal/app"
	"github.com/ovenhouse/backend-pizzeria/internal/config"
	"github.com/ovenhouse/backend-pizzeria/internal/health"
	"github.com/ovenhouse/backend-pizzeria/internal/obs"
	"github.com/ovenhouse/backend-pizzeria/internal/pricing"
	"github.com/ovenhouse/backend-pizzeria/internal/ratelimit"
	"github.com/ovenhouse/backend-pizzeria/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pizzeria-pricing",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			cfg.TracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	buildCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	deps, cleanup, err := app.Build(buildCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("build dependencies")
	}
	defer cleanup()

	// Pay provider latency now, not on the first request.
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 10*time.Second)
	if err := deps.Pricing.Warmup(warmCtx); err != nil {
		logger.Error().Err(err).Msg("catalog warmup")
	}
	cancelWarm()

	httpMetrics := obs.NewHTTPMetrics("pizzeria", obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Link", "X-Request-ID"},
		MaxAge:         300,
	}))

	if deps.Redis != nil && cfg.RateLimitPerMinute > 0 {
		limiter := ratelimit.Handler{
			Limiter: ratelimit.Limiter{Client: deps.Redis, Prefix: "pizzeria:ratelimit:"},
			Config: ratelimit.Config{
				Key:    func(r *http.Request) string { return r.RemoteAddr },
				Window: time.Minute,
				Max:    cfg.RateLimitPerMinute,
			},
			OnError: func(err error) { logger.Error().Err(err).Msg("rate limiter") },
		}
		r.Use(limiter.Middleware)
	}

	r.Handle("/metrics", promhttp.Handler())
	if cfg.AppEnv != "production" {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(),
			os.Getenv("SECURE_PPROF_BASIC_AUTH_USER"), os.Getenv("SECURE_PPROF_BASIC_AUTH_PASS")))
	}

	healthHandler := health.Handler{}
	if deps.DB != nil {
		healthHandler.DB = func(ctx context.Context, timeout time.Duration) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return deps.DB.Ping(ctx)
		}
	}
	if deps.Redis != nil {
		healthHandler.Redis = func(ctx context.Context, timeout time.Duration) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return deps.Redis.Ping(ctx).Err()
		}
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	pricingHandler := pricing.NewHandler(pricing.HandlerConfig{
		Service:   deps.Pricing,
		Discounts: deps.Discounts,
		Logger:    logger,
	})

	r.Route("/api/v1", func(v chi.Router) {
		v.Post("/price", pricingHandler.Price)
		v.Post("/price/batch", pricingHandler.Batch)
		v.Post("/orders/total", pricingHandler.OrderTotal)

		v.Route("/admin", func(admin chi.Router) {
			admin.Post("/pricing/invalidate", pricingHandler.Invalidate)
			admin.Post("/catalog/warmup", pricingHandler.Warmup)
			admin.Get("/cache/{namespace}/stats", pricingHandler.CacheStats)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-sigCtx.Done():
		// Drain: fail readiness first so load balancers stop routing here.
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
		logger.Info().Msg("server stopped")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
