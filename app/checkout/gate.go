// Package checkout validates and prices a cash-on-delivery submission.
package checkout

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrRejected wraps every anti-automation rejection.
var ErrRejected = errors.New("checkout: submission rejected")

// HoneypotField is the hidden form field only bots fill in.
const HoneypotField = "website"

const (
	GenericMessage = "Invalid submission detected. Please try again."
	DwellMessage   = "Please take your time filling out the form."
)

// Rejection reasons, used as metric labels.
const (
	ReasonHoneypot = "honeypot"
	ReasonToken    = "token"
	ReasonDwell    = "dwell"
)

// Rejection is a gate failure. Message is safe to show; Reason is not.
type Rejection struct {
	Reason  string
	Message string
}

func (r *Rejection) Error() string { return fmt.Sprintf("checkout: rejected (%s)", r.Reason) }

func (r *Rejection) Unwrap() error { return ErrRejected }

const formAudience = "checkout-form"

type formClaims struct {
	IssuedMs int64 `json:"ims"`
	jwt.RegisteredClaims
}

// Gate issues signed form tokens and checks the hidden field and dwell
// time on submit.
type Gate struct {
	secret   []byte
	minDwell time.Duration
	maxAge   time.Duration
	now      func() time.Time
}

// NewGate signs tokens with secret. Forms older than two hours are refused.
func NewGate(secret string, minDwell time.Duration) *Gate {
	return &Gate{
		secret:   []byte(secret),
		minDwell: minDwell,
		maxAge:   2 * time.Hour,
		now:      time.Now,
	}
}

// WithClock replaces the gate's clock.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// MinDwell is the shortest accepted fill time.
func (g *Gate) MinDwell() time.Duration { return g.minDwell }

// Issue returns a form token for sessionID stamped with the current time.
func (g *Gate) Issue(sessionID string) (string, time.Time, error) {
	now := g.now()
	claims := formClaims{
		IssuedMs: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Audience:  jwt.ClaimStrings{formAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.maxAge)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("checkout: sign form token: %w", err)
	}
	return tok, now, nil
}

// Check runs the honeypot then the dwell-time check.
func (g *Gate) Check(token, sessionID, honeypot string) error {
	if honeypot != "" {
		return &Rejection{Reason: ReasonHoneypot, Message: GenericMessage}
	}

	var claims formClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(formAudience),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || claims.Subject != sessionID || claims.IssuedMs == 0 {
		return &Rejection{Reason: ReasonToken, Message: GenericMessage}
	}

	if g.now().Sub(time.UnixMilli(claims.IssuedMs)) < g.minDwell {
		return &Rejection{Reason: ReasonDwell, Message: DwellMessage}
	}
	return nil
}
