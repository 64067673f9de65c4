package shortlink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals the short id does not exist or was already redeemed.
var ErrNotFound = errors.New("shortlink: not found")

// Link is a write-once mapping from an opaque short id to a capability URL.
type Link struct {
	ID        string
	LongURL   string
	SingleUse bool
	CreatedAt time.Time
}

// Repository persists short links. Redeem must be atomic: concurrent
// redemption of the same single-use id yields exactly one success.
type Repository interface {
	Save(ctx context.Context, link Link) error
	Get(ctx context.Context, id string) (Link, error)
	Redeem(ctx context.Context, id string) (Link, error)
}

// Service issues and resolves short links. SMS payload limits make a full
// signed capability URL unusable, so an opaque short id stands in for it.
type Service struct {
	repo    Repository
	baseURL string
	idGen   func() string
	now     func() time.Time
}

// NewService wires the service; baseURL is the public host serving the
// redirect handler.
func NewService(repo Repository, baseURL string) *Service {
	return &Service{
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
		idGen:   newShortID,
		now:     time.Now,
	}
}

// WithIDGenerator overrides id generation, for tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGen = gen
	return s
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Shorten persists a new mapping and returns the public short URL. Whether
// the link burns on first resolution is the caller's intent, carried on the
// record.
func (s *Service) Shorten(ctx context.Context, longURL string, singleUse bool) (string, error) {
	if longURL == "" {
		return "", fmt.Errorf("shortlink: empty target url")
	}

	link := Link{
		ID:        s.idGen(),
		LongURL:   longURL,
		SingleUse: singleUse,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Save(ctx, link); err != nil {
		return "", err
	}

	return s.baseURL + "/to/" + link.ID, nil
}

// Resolve returns the long URL behind id. Single-use links are atomically
// redeemed; a second resolution reports ErrNotFound.
func (s *Service) Resolve(ctx context.Context, id string) (string, error) {
	link, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if link.SingleUse {
		link, err = s.repo.Redeem(ctx, id)
		if err != nil {
			return "", err
		}
	}

	return link.LongURL, nil
}

// newShortID derives a compact opaque id. Ten hex characters keep SMS bodies
// small while leaving collision handling to the primary-key constraint.
func newShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
