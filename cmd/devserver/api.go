package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"crease/internal/auth"
	"crease/internal/devstore"
	"crease/internal/ratelimiter"
)

type application struct {
	config        config
	store         devstore.Storage
	logger        *zap.SugaredLogger
	authenticator auth.Authenticator
	rateLimiter   *ratelimiter.FixedWindowRateLimiter
	bookingNums   *devstore.BookingNumberGenerator
}

type config struct {
	addr        string
	env         string
	auth        authConfig
	razorpay    razorpayConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret        string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	iss           string
}

type basicConfig struct {
	user string
	pass string
}

type razorpayConfig struct {
	keyID     string
	keySecret string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/authentication", func(r chi.Router) {
			r.Use(app.RateLimiterMiddleware)
			r.Post("/player", app.registerPlayerHandler)
			r.Post("/token", app.createTokenHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Get("/slot/availability", app.slotAvailabilityHandler)

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", app.createBookingHandler)
				r.Get("/details/{bookingID}", app.bookingDetailsHandler)
				r.Get("/{bookingID}/status", app.bookingStatusHandler)
				r.Delete("/{bookingID}", app.cancelBookingHandler)
			})

			r.Route("/payments/razorpay", func(r chi.Router) {
				r.Post("/order/{bookingID}", app.createPaymentOrderHandler)
				r.Post("/verify", app.verifyPaymentHandler)
			})
		})
	})
	return r
}

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	app.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ok",
		"env":    app.config.env,
	})
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())
		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("devserver has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("devserver has stopped", "addr", app.config.addr)
	return nil
}
