// Package auth resolves bearer tokens to principals.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/domain"
)

// ErrInvalidToken is returned for tokens the verifier does not accept.
var ErrInvalidToken = errors.New("auth: invalid token")

// Verifier resolves a bearer token to the caller it was issued to.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.Principal, error)
}

// StaticVerifier accepts a fixed set of tokens.
type StaticVerifier struct {
	principals map[string]domain.Principal
}

// NewStaticVerifier parses entries of the form token:userID:role. The role
// defaults to user when omitted.
func NewStaticVerifier(entries []string) (*StaticVerifier, error) {
	v := &StaticVerifier{principals: make(map[string]domain.Principal, len(entries))}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("NewStaticVerifier: malformed entry %q, want token:userID[:role]", redact(entry))
		}

		role := domain.RoleUser
		if len(parts) == 3 {
			role = parts[2]
		}
		if role != domain.RoleUser && role != domain.RoleAdmin {
			return nil, fmt.Errorf("NewStaticVerifier: unknown role %q", role)
		}
		if _, dup := v.principals[parts[0]]; dup {
			return nil, fmt.Errorf("NewStaticVerifier: token for %s listed twice", parts[1])
		}
		v.principals[parts[0]] = domain.Principal{UserID: parts[1], Role: role}
	}
	return v, nil
}

// Verify implements Verifier.
func (v *StaticVerifier) Verify(_ context.Context, token string) (*domain.Principal, error) {
	p, ok := v.principals[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &p, nil
}

// redact hides the token part of an entry.
func redact(entry string) string {
	if i := strings.Index(entry, ":"); i >= 0 {
		return "***" + entry[i:]
	}
	return "***"
}
