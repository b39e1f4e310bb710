package services

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when the presented secret does
	// not match the configured one.
	ErrInvalidCredentials = errors.New("invalid private key")

	// ErrInvalidToken is returned when a token does not have the shape
	// of a bcrypt hash. The comparison primitive is never reached.
	ErrInvalidToken = errors.New("invalid token format")
)

// bcryptHashPattern matches the fixed shape of a bcrypt hash: algorithm
// tag, two-digit cost, then the 53-character salt+payload.
var bcryptHashPattern = regexp.MustCompile(`^\$2[aby]\$\d{2}\$[./A-Za-z0-9]{53}$`)

// TokenService implements the single-secret auth scheme. A token is a
// fresh bcrypt hash of the shared secret, so it can be re-verified
// against the secret without any stored session state. Every issuance
// salts anew, so two logins never yield the same token, and any
// well-formed hash of the correct secret validates regardless of when
// it was issued. Revocation means rotating the secret, which
// invalidates all outstanding tokens at once.
type TokenService struct {
	privateKey string
	secretHash []byte
	cost       int
}

// NewTokenService creates a token service for the given shared secret.
// cost is the bcrypt work factor; values outside the allowed range fall
// back to the bcrypt default.
func NewTokenService(privateKey string, cost int) (*TokenService, error) {
	if privateKey == "" {
		return nil, fmt.Errorf("private key must not be empty")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	// Hashed once up front so Issue can compare candidates with the
	// same constant-time primitive used for token validation.
	secretHash, err := bcrypt.GenerateFromPassword([]byte(privateKey), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash private key: %w", err)
	}

	return &TokenService{
		privateKey: privateKey,
		secretHash: secretHash,
		cost:       cost,
	}, nil
}

// Issue verifies a candidate secret and, on match, returns a newly
// salted token. Returns ErrInvalidCredentials on mismatch.
func (s *TokenService) Issue(candidate string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.secretHash, []byte(candidate)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to compare private key: %w", err)
	}

	token, err := bcrypt.GenerateFromPassword([]byte(s.privateKey), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return string(token), nil
}

// Validate reports whether the presented bearer token is a valid hash
// of the configured secret. Tokens that don't match the bcrypt hash
// shape fail with ErrInvalidToken before any comparison; a well-formed
// but wrong token yields (false, nil).
func (s *TokenService) Validate(token string) (bool, error) {
	if !bcryptHashPattern.MatchString(token) {
		return false, ErrInvalidToken
	}

	err := bcrypt.CompareHashAndPassword([]byte(token), []byte(s.privateKey))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		// The shape check passed, so anything else here (e.g. a cost
		// outside the supported range) still just means "not a token
		// we issued".
		var costErr bcrypt.InvalidCostError
		if errors.As(err, &costErr) {
			return false, nil
		}
		return false, fmt.Errorf("failed to verify token: %w", err)
	}
}
