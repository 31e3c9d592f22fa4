package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenValidator checks register access tokens. Tokens are HS256 JWTs whose
// subject is the operator id.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
	Secret    []byte
}

// Parse verifies the signature and claims of raw and returns the operator id.
func (v TokenValidator) Parse(raw string, now time.Time) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("auth: token missing")
	}
	alg, err := signingAlgorithm(raw)
	if err != nil {
		return 0, err
	}
	if v.Algorithm != "" && alg != v.Algorithm {
		return 0, fmt.Errorf("auth: unexpected token algorithm %s", alg)
	}
	// Claims are checked by Validate against the injected clock.
	tok, err := jwt.ParseString(raw, jwt.WithKey(alg, v.Secret), jwt.WithValidate(false))
	if err != nil {
		return 0, fmt.Errorf("auth: verify token: %w", err)
	}
	if err := v.Validate(tok, alg, now); err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(tok.Subject(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("auth: subject %q is not an operator id", tok.Subject())
	}
	return id, nil
}

// Validate checks the algorithm, required claims and time window of a parsed
// token.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	switch {
	case tok == nil:
		return errors.New("auth: token is nil")
	case algorithm == "":
		return errors.New("auth: token missing algorithm")
	case v.Algorithm != "" && algorithm != v.Algorithm:
		return fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	case tok.Subject() == "":
		return errors.New("auth: token missing subject")
	case tok.Expiration().IsZero():
		return errors.New("auth: token missing expiry")
	}

	opts := []jwt.ValidateOption{jwt.WithClock(jwt.ClockFunc(func() time.Time { return now }))}
	if v.ClockSkew > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	return jwt.Validate(tok, opts...)
}

// signingAlgorithm reads the protected header algorithm. Unsigned tokens and
// tokens mixing algorithms across signatures are refused.
func signingAlgorithm(raw string) (jwa.SignatureAlgorithm, error) {
	msg, err := jws.ParseString(raw)
	if err != nil {
		return "", fmt.Errorf("auth: malformed token: %w", err)
	}
	var alg jwa.SignatureAlgorithm
	for _, sig := range msg.Signatures() {
		headers := sig.ProtectedHeaders()
		if headers == nil || headers.Algorithm() == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		got := headers.Algorithm()
		if got == jwa.NoSignature {
			return "", errors.New("auth: unsigned token")
		}
		if alg != "" && alg != got {
			return "", errors.New("auth: mixed token algorithms")
		}
		alg = got
	}
	if alg == "" {
		return "", errors.New("auth: token has no signatures")
	}
	return alg, nil
}
