package magiclink

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"immersionflow/auth"
	"immersionflow/convention"
)

// Lifetime names how long an issued link stays valid. Short and long resolve
// against configuration; the named variants are fixed.
type Lifetime string

const (
	LifetimeShort   Lifetime = "short"
	LifetimeLong    Lifetime = "long"
	LifetimeTwoDays Lifetime = "2days"
)

// Routes a capability link may target. The route is embedded at issuance so
// redemption lands on the page the link was minted for.
const (
	RouteSignConvention   = "/conventions/sign"
	RouteConventionStatus = "/conventions/status"
	RouteAssessment       = "/assessments/fill"
)

var (
	// ErrExpiredLink signals the link's expiry elapsed.
	ErrExpiredLink = errors.New("magiclink: link expired")
	// ErrInvalidLink signals a malformed or tampered token.
	ErrInvalidLink = errors.New("magiclink: invalid link")
)

// Issuer mints signed, expiring capability URLs bound either to one
// convention, one role and one email, or to an authenticated account.
type Issuer struct {
	cfg    Config
	secret []byte
	now    func() time.Time
}

// NewIssuer builds an issuer from configuration.
func NewIssuer(cfg Config) *Issuer {
	return &Issuer{
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) ttl(lifetime Lifetime) time.Duration {
	switch lifetime {
	case LifetimeTwoDays:
		return 48 * time.Hour
	case LifetimeLong:
		return time.Duration(i.cfg.LongLifetimeDays) * 24 * time.Hour
	default:
		return time.Duration(i.cfg.ShortLifetimeDays) * 24 * time.Hour
	}
}

// ConventionLinkParams scope a link to one convention, one role, one email.
type ConventionLinkParams struct {
	ConventionID string
	Role         convention.Role
	Email        string
	TargetRoute  string
	Lifetime     Lifetime
}

// IssueForConvention mints a convention-scoped capability URL. The literal
// email travels in the payload because notification composition needs the
// address; the hash is what verification matches against admissible emails.
func (i *Issuer) IssueForConvention(params ConventionLinkParams) (string, error) {
	if params.ConventionID == "" || params.Role == "" || params.Email == "" {
		return "", fmt.Errorf("magiclink: convention id, role and email are required")
	}

	now := i.now().UTC()
	claims := jwt.MapClaims{
		"application_id": params.ConventionID,
		"role":           string(params.Role),
		"email":          params.Email,
		"email_hash":     HashEmail(params.Email),
		"iat":            now.Unix(),
		"exp":            now.Add(i.ttl(params.Lifetime)).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("magiclink: sign token: %w", err)
	}

	return i.buildURL(params.TargetRoute, signed), nil
}

// IssueForUser mints a link bound to an authenticated account id. No email
// hash applies; verification re-loads the user instead.
func (i *Issuer) IssueForUser(userID, targetRoute string, lifetime Lifetime) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("magiclink: user id is required")
	}

	now := i.now().UTC()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(i.ttl(lifetime)).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("magiclink: sign token: %w", err)
	}

	return i.buildURL(targetRoute, signed), nil
}

func (i *Issuer) buildURL(route, token string) string {
	query := url.Values{}
	query.Set("jwt", token)
	return strings.TrimRight(i.cfg.BaseURL, "/") + route + "?" + query.Encode()
}

// VerifyConventionLink validates a convention-scoped token and returns the
// credential it carries.
func (i *Issuer) VerifyConventionLink(tokenString string) (auth.ScopedToken, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return auth.ScopedToken{}, err
	}

	conventionID, _ := claims["application_id"].(string)
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)
	emailHash, _ := claims["email_hash"].(string)
	if conventionID == "" || role == "" {
		return auth.ScopedToken{}, fmt.Errorf("%w: missing scope claims", ErrInvalidLink)
	}

	return auth.ScopedToken{
		ConventionID: conventionID,
		Role:         role,
		Email:        email,
		EmailHash:    emailHash,
	}, nil
}

// VerifyUserLink validates a connected-user token.
func (i *Issuer) VerifyUserLink(tokenString string) (auth.AuthenticatedUser, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return auth.AuthenticatedUser{}, err
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return auth.AuthenticatedUser{}, fmt.Errorf("%w: missing user claim", ErrInvalidLink)
	}

	return auth.AuthenticatedUser{UserID: userID}, nil
}

func (i *Issuer) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredLink
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidLink
	}
	return claims, nil
}

// HashEmail computes the one-way hash embedded in convention links. Emails
// are lowercased and trimmed before hashing so matching stays
// case-insensitive.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// EmailMatchesHash reports whether any candidate email hashes to the value
// embedded at issuance time.
func EmailMatchesHash(hash string, candidates []string) bool {
	if hash == "" {
		return false
	}
	for _, candidate := range candidates {
		if HashEmail(candidate) == hash {
			return true
		}
	}
	return false
}
