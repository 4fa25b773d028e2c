// Package totp computes RFC 6238 time-based one-time passwords from base32
// seeds: HMAC-SHA1 over the 30-second time step, RFC 4226 dynamic
// truncation, six zero-padded digits.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

const (
	Period = 30
	Digits = 6

	// MinSeedLength and MaxSeedLength bound seeds accepted at entry creation.
	MinSeedLength = 16
	MaxSeedLength = 64
)

var (
	ErrInvalidSeed    = errors.New("invalid base32 seed")
	ErrSeedLength     = fmt.Errorf("seed must be %d to %d characters", MinSeedLength, MaxSeedLength)
	ErrMissingAccount = errors.New("missing account name")
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generator produces codes for the current time of its clock.
type Generator struct {
	now func() time.Time
}

type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Code returns the code for seed at the current time.
func (g *Generator) Code(seed string) (string, error) {
	return CodeAt(seed, g.now())
}

// RemainingTime returns the seconds left in the current step, 1..30.
func (g *Generator) RemainingTime() int {
	return RemainingTimeAt(g.now())
}

// Progress returns how far the current step has run, in percent.
func (g *Generator) Progress() float64 {
	return ProgressAt(g.now())
}

// CodeAt returns the code for seed in the step containing t.
func CodeAt(seed string, t time.Time) (string, error) {
	key, err := DecodeSeed(seed)
	if err != nil {
		return "", err
	}
	code := HOTP(key, uint64(t.Unix()/Period), Digits)
	return fmt.Sprintf("%0*d", Digits, code), nil
}

// HOTP implements RFC 4226 for an already decoded key.
func HOTP(key []byte, counter uint64, digits int) int {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := int(binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff)

	return code % int(math.Pow10(digits))
}

// RemainingTimeAt is 30 - (unix(t) mod 30).
func RemainingTimeAt(t time.Time) int {
	return Period - int(t.Unix()%Period)
}

// ProgressAt is (30 - remaining) / 30 * 100.
func ProgressAt(t time.Time) float64 {
	return float64(Period-RemainingTimeAt(t)) / Period * 100
}

// NormalizeSeed strips spaces and hyphens, upper-cases and drops padding.
func NormalizeSeed(seed string) string {
	r := strings.NewReplacer(" ", "", "-", "", "\t", "", "=", "")
	return strings.ToUpper(r.Replace(seed))
}

// DecodeSeed normalizes seed and decodes it as base32.
func DecodeSeed(seed string) ([]byte, error) {
	s := NormalizeSeed(seed)
	if s == "" {
		return nil, ErrInvalidSeed
	}
	key, err := b32.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return key, nil
}

// ValidateSeed reports whether seed decodes and yields a six digit code.
// Length is not checked here.
func ValidateSeed(seed string) bool {
	code, err := CodeAt(seed, time.Now())
	if err != nil || len(code) != Digits {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ValidateSeedLength checks the normalized seed against the accepted range.
func ValidateSeedLength(seed string) error {
	n := len(NormalizeSeed(seed))
	if n < MinSeedLength || n > MaxSeedLength {
		return ErrSeedLength
	}
	return nil
}

// Params describes an otpauth:// key URI.
type Params struct {
	Seed        string
	AccountName string
	Issuer      string
}

// URI builds an otpauth://totp key URI in the Key Uri Format understood by
// authenticator apps.
func URI(p Params) (string, error) {
	if p.AccountName == "" {
		return "", ErrMissingAccount
	}
	seed := NormalizeSeed(p.Seed)
	if _, err := DecodeSeed(seed); err != nil {
		return "", err
	}

	label := url.PathEscape(p.AccountName)
	if p.Issuer != "" {
		label = url.PathEscape(p.Issuer) + ":" + label
	}

	q := url.Values{}
	q.Set("secret", seed)
	if p.Issuer != "" {
		q.Set("issuer", p.Issuer)
	}
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", Digits))
	q.Set("period", fmt.Sprintf("%d", Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode()), nil
}
