package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adminblog/core/internal/pkg/apperr"
	jwtpkg "github.com/adminblog/core/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// Options configures the administrator secret. PasswordHash, a bcrypt hash,
// takes precedence over the plain Password when both are set.
type Options struct {
	Password     string
	PasswordHash string
}

// Service is the access gate: it exchanges the administrator secret for a
// signed, time-bounded token and verifies such tokens statelessly.
type Service struct {
	signer *jwtpkg.Signer
	plain  []byte
	hash   []byte
}

// NewService fails when no administrator secret is configured.
func NewService(signer *jwtpkg.Signer, opts Options) (*Service, error) {
	if signer == nil {
		return nil, errors.New("auth: signer is nil")
	}
	s := &Service{signer: signer}
	if h := strings.TrimSpace(opts.PasswordHash); h != "" {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, fmt.Errorf("auth: password_hash is not a bcrypt hash: %w", err)
		}
		s.hash = []byte(h)
		return s, nil
	}
	if opts.Password == "" {
		return nil, errors.New("auth: administrator password is not configured")
	}
	s.plain = []byte(opts.Password)
	return s, nil
}

// Issue returns a token for the supplied secret, or apperr.ErrUnauthorized.
func (s *Service) Issue(supplied string) (string, time.Time, error) {
	if !s.matches(supplied) {
		return "", time.Time{}, fmt.Errorf("%w: invalid password", apperr.ErrUnauthorized)
	}
	token, expires, err := s.signer.Sign()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires, nil
}

// Verify fails closed: any parse error, bad signature, expiry or missing
// administrator claim yields apperr.ErrUnauthorized.
func (s *Service) Verify(token string) (*jwtpkg.Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", apperr.ErrUnauthorized)
	}
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	if !claims.Admin {
		return nil, fmt.Errorf("%w: not an administrator token", apperr.ErrUnauthorized)
	}
	return claims, nil
}

func (s *Service) matches(supplied string) bool {
	if s.hash != nil {
		return bcrypt.CompareHashAndPassword(s.hash, []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare(s.plain, []byte(supplied)) == 1
}
