package main

import (
	"expvar"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"

	"crease/internal/auth"
	"crease/internal/booking"
	"crease/internal/devstore"
	"crease/internal/ratelimiter"
)

var version = "0.3.0"

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func loadRateLimiterConfig() ratelimiter.Config {
	requests := 20
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsed, err := strconv.Atoi(val); err == nil {
			requests = parsed
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", requests)
		}
	}

	enabled := true
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsed, err := strconv.ParseBool(val); err == nil {
			enabled = parsed
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", enabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requests,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// newLogger creates a zap logger with a colored console encoder.
func newLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)

	return zap.New(core).Sugar(), nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file, using environment and defaults")
	}

	cfg := config{
		addr: envOr("ADDR", ":8080"),
		env:  envOr("ENV", "development"),
		auth: authConfig{
			basic: basicConfig{
				user: envOr("AUTH_BASIC_USER", "admin"),
				pass: envOr("AUTH_BASIC_PASS", "admin"),
			},
			token: tokenConfig{
				secret:        envOr("AUTH_TOKEN_SECRET", "dev-access-secret"),
				refreshSecret: envOr("AUTH_TOKEN_REFRESH_SECRET", "dev-refresh-secret"),
				accessTTL:     time.Hour * 24,
				refreshTTL:    time.Hour * 24 * 9,
				iss:           "crease",
			},
		},
		razorpay: razorpayConfig{
			keyID:     envOr("RAZORPAY_KEY_ID", "rzp_test_dev"),
			keySecret: envOr("RAZORPAY_KEY_SECRET", "dev-razorpay-secret"),
		},
		rateLimiter: loadRateLimiterConfig(),
	}

	logger, err := newLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	store := devstore.NewStorage(envOr("HASHIDS_SALT", "crease-dev"))
	seed(store, logger)

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.auth.token.secret,
		cfg.auth.token.refreshSecret,
		cfg.auth.token.iss,
		cfg.auth.token.accessTTL,
		cfg.auth.token.refreshTTL,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
		bookingNums:   devstore.NewBookingNumberGenerator(envOr("BOOKING_NUMBER_SECRET", "crease-dev")),
	}

	app.expirePendingBookingsEvery30Secs()

	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}

// seed loads the slot templates and a demo player so the client flow works
// out of the box.
func seed(store devstore.Storage, logger *zap.SugaredLogger) {
	store.Templates.Put(devstore.SlotTemplate{
		Resource:       booking.ResourceNet,
		OpenHour:       6,
		CloseHour:      21,
		Units:          4,
		Price:          800,
		EveningPrice:   1100,
		LightsFromHour: 17,
	})
	store.Templates.Put(devstore.SlotTemplate{
		Resource:       booking.ResourceBowlingMachine,
		OpenHour:       9,
		CloseHour:      19,
		Units:          2,
		Price:          1200,
		EveningPrice:   1500,
		LightsFromHour: 17,
	})
	store.Templates.Put(devstore.SlotTemplate{
		Resource:       booking.ResourceCenterWicket,
		OpenHour:       6,
		CloseHour:      18,
		Units:          1,
		Price:          3000,
		EveningPrice:   3000,
		LightsFromHour: 17,
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("crease"), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatalf("seeding demo player: %v", err)
	}
	if _, err := store.Players.Create("Demo Player", "demo@crease.local", hash); err != nil {
		logger.Fatalf("seeding demo player: %v", err)
	}
	logger.Infow("seeded demo player", "email", "demo@crease.local", "password", "crease")
}
