package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crease/internal/booking"
	"crease/internal/session"
)

// ErrSessionExpired is returned from any call that hit a 401. The store's
// session keys have already been cleared by the time callers see it.
var ErrSessionExpired = errors.New("session expired")

// Error is a non-2xx response decoded from the server's error envelope.
// Message is shown to the user verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Client is the single authenticated wrapper every flow stage goes through.
// It attaches the bearer token from the session store to each request and
// owns the cross-cutting 401 behaviour: clear session keys, flag the session
// expired, fire the registered hook once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *session.Store
	logger     *zap.SugaredLogger

	expireOnce       sync.Once
	onSessionExpired func()
}

func NewClient(baseURL string, store *session.Store, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		store:      store,
		logger:     logger,
	}
}

// OnSessionExpired registers the logout side effect (the "redirect to login"
// of the original pages). Invoked at most once per client lifetime.
func (c *Client) OnSessionExpired(fn func()) {
	c.onSessionExpired = fn
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if tok := c.store.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.expire()
		return ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &envelope)
		c.logger.Warnw("request failed", "method", method, "path", path,
			"status", resp.StatusCode, "message", envelope.Message)
		return &Error{Status: resp.StatusCode, Message: envelope.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) expire() {
	c.expireOnce.Do(func() {
		if err := c.store.ClearSession(); err != nil {
			c.logger.Errorw("clearing expired session", "error", err)
		}
		c.logger.Infow("session expired, logged out")
		if c.onSessionExpired != nil {
			c.onSessionExpired()
		}
	})
}

// AvailabilityResponse is the server's snapshot for one (date, resource)
// pair. Advisory only: windows can be taken by another player at any time.
type AvailabilityResponse struct {
	Available bool                 `json:"available"`
	Message   string               `json:"message,omitempty"`
	Slots     []booking.SlotWindow `json:"slots"`
}

func (c *Client) SlotAvailability(ctx context.Context, date string, resource booking.ResourceType) (AvailabilityResponse, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("resourceType", string(resource))

	var out AvailabilityResponse
	if err := c.do(ctx, http.MethodGet, "/v1/slot/availability?"+q.Encode(), nil, &out); err != nil {
		return AvailabilityResponse{}, err
	}
	return out, nil
}

type CreateBookingRequest struct {
	PlayerPublicID string `json:"playerPublicId" validate:"required"`
	Date           string `json:"date" validate:"required"`
	StartTime      string `json:"startTime" validate:"required"`
	ResourceType   string `json:"resourceType" validate:"required"`
}

type CreateBookingResponse struct {
	BookingPublicID string    `json:"bookingPublicId"`
	Status          string    `json:"status"`
	Amount          int       `json:"amount"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (CreateBookingResponse, error) {
	var out CreateBookingResponse
	if err := c.do(ctx, http.MethodPost, "/v1/bookings", req, &out); err != nil {
		return CreateBookingResponse{}, err
	}
	return out, nil
}

func (c *Client) BookingDetails(ctx context.Context, bookingID string) (booking.Detail, error) {
	var out booking.Detail
	if err := c.do(ctx, http.MethodGet, "/v1/bookings/details/"+bookingID, nil, &out); err != nil {
		return booking.Detail{}, err
	}
	return out, nil
}

// PaymentOrder is the server-created checkout handle for a pending booking.
type PaymentOrder struct {
	Amount          int    `json:"amount"`
	Currency        string `json:"currency"`
	RazorpayOrderID string `json:"razorpayOrderId"`
	RazorpayKeyID   string `json:"razorpayKeyId"`
}

func (c *Client) CreatePaymentOrder(ctx context.Context, bookingID string) (PaymentOrder, error) {
	var out PaymentOrder
	if err := c.do(ctx, http.MethodPost, "/v1/payments/razorpay/order/"+bookingID, nil, &out); err != nil {
		return PaymentOrder{}, err
	}
	return out, nil
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId" validate:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" validate:"required"`
	RazorpaySignature string `json:"razorpaySignature" validate:"required"`
}

func (c *Client) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/payments/razorpay/verify", req, nil)
}

func (c *Client) BookingStatus(ctx context.Context, bookingID string) (booking.StatusDetail, error) {
	var out booking.StatusDetail
	if err := c.do(ctx, http.MethodGet, "/v1/bookings/"+bookingID+"/status", nil, &out); err != nil {
		return booking.StatusDetail{}, err
	}
	return out, nil
}

func (c *Client) CancelBooking(ctx context.Context, bookingID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/bookings/"+bookingID, nil, nil)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Player       struct {
		PublicID string `json:"publicId"`
		Name     string `json:"name"`
	} `json:"player"`
}

// Login authenticates and stores the resulting credentials.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/authentication/token", LoginRequest{Email: email, Password: password}, &out); err != nil {
		return err
	}
	return c.store.SetCredentials(out.AccessToken, out.RefreshToken, out.Player.PublicID, out.Player.Name)
}
