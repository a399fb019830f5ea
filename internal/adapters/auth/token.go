package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sistema_hotel/internal/domain"
)

const RoleAdmin = "admin"

// Principal is the identity extracted from a verified bearer token.
type Principal struct {
	UserID int64
	Role   string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Tokens signs and verifies HS256 bearer tokens with {sub, role, exp} claims.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func New(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Issue(userID int64, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"exp":  time.Now().Add(t.ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}

// Verify parses and validates a compact token. Tokens stored by browser
// clients sometimes arrive wrapped in JSON quotes; those are stripped.
func (t *Tokens) Verify(raw string) (Principal, error) {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	if raw == "" {
		return Principal{}, fmt.Errorf("%w: empty token", domain.ErrAuth)
	}

	tok, err := jwt.Parse(raw, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return Principal{}, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, fmt.Errorf("%w: malformed claims", domain.ErrAuth)
	}
	sub, _ := claims["sub"].(string)
	uid, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || uid <= 0 {
		return Principal{}, fmt.Errorf("%w: bad subject", domain.ErrAuth)
	}
	role, _ := claims["role"].(string)
	return Principal{UserID: uid, Role: role}, nil
}
