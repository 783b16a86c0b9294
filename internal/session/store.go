package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"crease/internal/booking"
)

var (
	ErrNoDraft   = errors.New("no booking draft stored")
	ErrNoBooking = errors.New("no active booking stored")
)

// Store is the durable client-side state shared across flow stages. It is
// the Go counterpart of the browser's localStorage keys: session credentials
// plus the two flow keys (bookingDraft, activeBookingId). Writes go through
// an atomic temp-file rename so a crash mid-save never corrupts the file.
//
// Only one flow stage writes a given key at a time; the flow coordinator
// preserves that single-writer order.
type Store struct {
	mu   sync.Mutex
	path string
	data persisted

	// sessionExpired is volatile on purpose: a restart should retry the
	// stored token rather than remember that it once failed.
	sessionExpired bool
}

type persisted struct {
	AccessToken     string         `json:"accessToken,omitempty"`
	RefreshToken    string         `json:"refreshToken,omitempty"`
	PlayerID        string         `json:"playerId,omitempty"`
	PlayerName      string         `json:"playerName,omitempty"`
	BookingDraft    *booking.Draft `json:"bookingDraft,omitempty"`
	ActiveBookingID string         `json:"activeBookingId,omitempty"`
}

// New loads the store at path, creating parent directories as needed.
// A missing file is an empty session, not an error.
func New(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.AccessToken
}

// SetCredentials stores the token pair and player identity after login.
func (s *Store) SetCredentials(accessToken, refreshToken, playerID, playerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.AccessToken = accessToken
	s.data.RefreshToken = refreshToken
	s.data.PlayerID = playerID
	s.data.PlayerName = playerName
	s.sessionExpired = false
	return s.save()
}

func (s *Store) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.PlayerID
}

func (s *Store) PlayerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.PlayerName
}

// TokenExpired reports whether the stored access token carries an exp claim
// in the past. The token is parsed unverified: the client holds no signing
// secret, and the check only saves a round trip the server would 401 anyway.
func (s *Store) TokenExpired(now time.Time) bool {
	tok := s.AccessToken()
	if tok == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}

// SaveDraft persists the tentative selection so it survives a full restart
// between slot selection and confirmation.
func (s *Store) SaveDraft(d booking.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.BookingDraft = &d
	return s.save()
}

// LoadDraft returns the stored draft or ErrNoDraft. A missing draft on the
// confirmation stage is terminal; the caller restarts slot selection.
func (s *Store) LoadDraft() (booking.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.BookingDraft == nil {
		return booking.Draft{}, ErrNoDraft
	}
	return *s.data.BookingDraft, nil
}

func (s *Store) ClearDraft() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.BookingDraft = nil
	return s.save()
}

// SetActiveBooking records the server-issued booking identifier. The draft
// is retained alongside it until payment completes, since failure paths may
// need to restore it.
func (s *Store) SetActiveBooking(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.ActiveBookingID = id
	return s.save()
}

func (s *Store) ActiveBooking() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.ActiveBookingID == "" {
		return "", ErrNoBooking
	}
	return s.data.ActiveBookingID, nil
}

// ClearBookingState drops both flow keys together. Called only once payment
// verification has succeeded, or on explicit user cancellation.
func (s *Store) ClearBookingState() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.BookingDraft = nil
	s.data.ActiveBookingID = ""
	return s.save()
}

// ClearSession drops credentials but leaves flow keys alone, so an expired
// session mid-flow can resume after a fresh login.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.AccessToken = ""
	s.data.RefreshToken = ""
	s.data.PlayerID = ""
	s.data.PlayerName = ""
	s.sessionExpired = true
	return s.save()
}

func (s *Store) SessionExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionExpired
}
