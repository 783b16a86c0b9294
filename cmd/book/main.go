package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"crease/internal/api"
	"crease/internal/flow"
	"crease/internal/payments"
	"crease/internal/session"
	"crease/internal/task"
)

type application struct {
	config  config
	logger  *zap.SugaredLogger
	session *session.Store
	client  *api.Client
	flow    *flow.Flow
}

type config struct {
	baseURL     string
	sessionFile string
	devCheckout bool
	// devSecret signs simulated checkout proofs when devCheckout is on.
	devSecret string
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// newLogger mirrors the devserver's console logger but at warn level, so
// wizard output stays readable.
func newLogger() *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		zapcore.WarnLevel,
	)
	return zap.New(core).Sugar()
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crease-session.json"
	}
	return filepath.Join(home, ".config", "crease", "session.json")
}

func main() {
	if err := godotenv.Load(); err == nil {
		fmt.Println("loaded .env")
	}

	devCheckout, _ := strconv.ParseBool(envOr("DEV_CHECKOUT", "true"))
	cfg := config{
		baseURL:     envOr("CREASE_API_URL", "http://localhost:8080"),
		sessionFile: envOr("CREASE_SESSION_FILE", defaultSessionFile()),
		devCheckout: devCheckout,
		devSecret:   envOr("RAZORPAY_KEY_SECRET", "dev-razorpay-secret"),
	}

	logger := newLogger()
	defer logger.Sync()

	store, err := session.New(cfg.sessionFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot open session file:", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.baseURL, store, logger)
	client.OnSessionExpired(func() {
		fmt.Println("\nYour session has expired. Please log in again.")
	})

	var checkout payments.CheckoutGateway
	if cfg.devCheckout {
		checkout = &payments.DevCheckout{Secret: cfg.devSecret}
	} else {
		checkout = &terminalCheckout{}
	}

	runner := task.NewRunner(task.RealClock())

	app := &application{
		config:  cfg,
		logger:  logger,
		session: store,
		client:  client,
		flow:    flow.New(store, client, checkout, runner, logger),
	}

	if err := app.runWizard(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
