package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"newsdesk/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// Claims is the payload of every issued token.
type Claims struct {
	AccountID  string     `json:"id"`
	Email      string     `json:"email"`
	Role       model.Role `json:"role"`
	Name       string     `json:"name,omitempty"`
	ProfilePic string     `json:"profilePic,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens. There is no server-side
// session state; expiry is checked on Verify.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	return &Tokens{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs claims for the given account.
func (t *Tokens) Issue(acct model.Account) (string, error) {
	now := t.now()
	claims := Claims{
		AccountID:  acct.ID.String(),
		Email:      acct.Email,
		Role:       acct.Role,
		Name:       acct.Name,
		ProfilePic: acct.ProfilePic,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return t.sign(claims)
}

// IssueBootstrapAdmin signs an admin token that is not backed by a stored
// account.
func (t *Tokens) IssueBootstrapAdmin(email string) (string, error) {
	now := t.now()
	claims := Claims{
		AccountID: BootstrapAdminID,
		Email:     email,
		Role:      model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   BootstrapAdminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return t.sign(claims)
}

func (t *Tokens) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify validates the signature and expiry of tokenString and returns its
// claims.
func (t *Tokens) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w: email", ErrMissingClaim)
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("%w: role", ErrMissingClaim)
	}
	return claims, nil
}
