package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/careloop/appointment-service/internal/handlers"
	"github.com/careloop/appointment-service/internal/outbox"
	"github.com/careloop/appointment-service/internal/patients"
	"github.com/careloop/appointment-service/internal/storage"
	"github.com/careloop/appointment-service/libs/auth"
	"github.com/careloop/appointment-service/libs/config"
	"github.com/careloop/appointment-service/libs/db"
	"github.com/careloop/appointment-service/libs/httpx"
	"github.com/careloop/appointment-service/libs/kafkax"
	"github.com/careloop/appointment-service/libs/metrics"
	otelx "github.com/careloop/appointment-service/libs/otel"
	"github.com/careloop/appointment-service/libs/runtime"
)

const serviceName = "appointment-service"

func main() {
	_ = godotenv.Load()

	logger := runtime.NewLogger(serviceName)

	ctx, stop := runtime.SignalContext()
	defer stop()

	port, err := config.Port("PORT", "3002")
	if err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	shutdownTracing, err := otelx.Setup(ctx, otelx.ConfigFromEnv(serviceName))
	if err != nil {
		logger.Error("tracing setup failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	pool, err := db.Open(ctx, config.DatabaseURL(), int32(config.Int("DB_MAX_CONNS", 10)))
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := storage.NewAppointmentRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	patientClient := patients.NewClient(config.String("PATIENT_SERVICE_URL", "http://patient-service:3001"))
	reg := metrics.New()
	h := handlers.New(repo, patientClient, outboxRepo, reg, logger)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers: kafkaBrokers,
	})
	go publisher.Run(ctx)

	checks := []runtime.ReadyCheck{
		{Name: "postgres", Check: db.ReadyCheck(pool)},
	}
	if kafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}

	mux := runtime.NewBaseMux(serviceName, checks...)
	mux.Handle("/metrics", reg.Handler())
	mux.HandleFunc("/api/appointments", h.Appointments)
	mux.HandleFunc("/api/appointments/", h.AppointmentByID)
	mux.HandleFunc("/api/availability/", h.Availability)
	mux.HandleFunc("/", h.Index)

	middlewares := []httpx.Middleware{
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: parseList(config.String("CORS_ALLOWED_ORIGINS", "*")),
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", httpx.RequestIDHeader},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		reg.Middleware,
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 1<<20))),
		httpx.WithTimeout(time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second),
	}

	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		limiter := httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, serviceName)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		limiter := httpx.NewRateLimiter(rateLimit, time.Minute)
		middlewares = append(middlewares, limiter.Middleware())
	}

	if isTruthy(config.String("AUTH_REQUIRED", "false")) {
		secret := config.String("JWT_SECRET_KEY", "")
		if secret == "" {
			logger.Error("AUTH_REQUIRED is set but JWT_SECRET_KEY is empty")
			os.Exit(1)
		}
		middlewares = append(middlewares, requireAuth(secret))
	}

	handler := otelhttp.NewHandler(httpx.Chain(mux, middlewares...), serviceName)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}

// requireAuth protects the /api routes with a bearer token. Probes, metrics
// and the index stay open for the platform.
func requireAuth(secret string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			if _, err := auth.ParseAndVerifyHS256(token, secret); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
