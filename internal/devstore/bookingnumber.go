package devstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// BookingNumberGenerator issues public booking identifiers. The HMAC tag
// keeps them non-guessable without a database lookup.
type BookingNumberGenerator struct {
	secret string
}

func NewBookingNumberGenerator(secret string) *BookingNumberGenerator {
	return &BookingNumberGenerator{secret: secret}
}

func (g *BookingNumberGenerator) Generate(playerID int64) string {
	nonce := uuid.NewString()

	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(fmt.Sprintf("plr:%d|nonce:%s", playerID, nonce)))

	sum := mac.Sum(nil)
	tag := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum)

	return fmt.Sprintf(
		"CRS-%s-%s",
		strings.ToUpper(tag[:4]),
		strings.ToUpper(nonce[:4]),
	)
}
