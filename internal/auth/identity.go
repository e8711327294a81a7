package auth

import (
	"context"
	"strings"

	"newsdesk/internal/model"
)

// BootstrapAdminID is the account id carried by tokens issued through the
// configured admin login bypass.
const BootstrapAdminID = "bootstrap"

// Identity is who a request acts as. The zero value is Anonymous.
type Identity struct {
	AccountID string
	Email     string
	Role      model.Role
}

// Anonymous is the identity of a request without a valid token.
var Anonymous = Identity{}

// IsAnonymous reports whether no verified token backs the identity.
func (i Identity) IsAnonymous() bool {
	return i == Anonymous
}

// Is reports whether the identity was verified for the given role.
func (i Identity) Is(role model.Role) bool {
	return !i.IsAnonymous() && i.Role == role
}

// ResolveActingIdentity turns an Authorization header value into an Identity.
// Both "Bearer <token>" and a bare token are accepted. Any missing, malformed,
// expired or forged token resolves to Anonymous.
func (t *Tokens) ResolveActingIdentity(header string) Identity {
	token := bearerToken(header)
	if token == "" {
		return Anonymous
	}
	claims, err := t.Verify(token)
	if err != nil {
		return Anonymous
	}
	return Identity{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      claims.Role,
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "Bearer ") {
		header = strings.TrimSpace(header[7:])
	}
	return header
}

// contextKey is a type for storing values in each request context.
type contextKey string

var ctxKeyIdentity = contextKey("identity")

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// FromContext returns the identity stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKeyIdentity).(Identity); ok {
		return id
	}
	return Anonymous
}
