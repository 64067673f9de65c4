package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"immersionflow/convention"
	"immersionflow/magiclink"
)

// EmailSender delivers a capability link over email. Implementations live at
// the delivery edge.
type EmailSender interface {
	Send(ctx context.Context, to string, kind Kind, link string) error
}

// SMSSender delivers a short link over SMS.
type SMSSender interface {
	Send(ctx context.Context, phone string, kind Kind, shortURL string) error
}

// ConventionGetter loads conventions for link fan-out.
type ConventionGetter interface {
	GetByID(ctx context.Context, id string) (convention.Convention, error)
}

// Shortener produces SMS-sized URLs for long capability links.
type Shortener interface {
	Shorten(ctx context.Context, longURL string, singleUse bool) (string, error)
}

// Sender builds and delivers signature and assessment links to the actors of
// a convention.
type Sender struct {
	conventions ConventionGetter
	links       *magiclink.Issuer
	shortener   Shortener
	repo        Repository
	throttle    *Throttle
	email       EmailSender
	sms         SMSSender
	now         func() time.Time
	idGen       func() string
}

// NewSender wires the sender with its collaborators.
func NewSender(conventions ConventionGetter, links *magiclink.Issuer, shortener Shortener, repo Repository, email EmailSender, sms SMSSender) *Sender {
	return &Sender{
		conventions: conventions,
		links:       links,
		shortener:   shortener,
		repo:        repo,
		throttle:    NewThrottle(repo),
		email:       email,
		sms:         sms,
		now:         time.Now,
		idGen:       func() string { return uuid.NewString() },
	}
}

// WithClock overrides the time source, for tests.
func (s *Sender) WithClock(now func() time.Time) *Sender {
	s.now = now
	return s
}

// WithIDGenerator overrides id generation, for tests.
func (s *Sender) WithIDGenerator(gen func() string) *Sender {
	s.idGen = gen
	return s
}

// SendSignatureLinks issues a signature link to every actor that has not yet
// signed. Recipients are independent: one failed or throttled delivery never
// blocks the others, and failures come back keyed by signatory role.
func (s *Sender) SendSignatureLinks(ctx context.Context, conventionID string, kind Kind) (map[convention.Role]error, error) {
	if kind != KindSignatureLink && kind != KindSignatureReminder {
		return nil, fmt.Errorf("notification: kind %s is not a signature notification", kind)
	}

	conv, err := s.conventions.GetByID(ctx, conventionID)
	if err != nil {
		return nil, err
	}
	if conv.Status != convention.StatusReadyToSign && conv.Status != convention.StatusPartiallySigned {
		return nil, fmt.Errorf("notification: convention %s is not awaiting signatures (status=%s)", conv.ID, conv.Status)
	}

	var (
		mu       sync.Mutex
		failures = map[convention.Role]error{}
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, signatory := range conv.Signatories.Present() {
		if signatory.Signed() {
			continue
		}
		signatory := signatory
		g.Go(func() error {
			if err := s.sendSignatureLink(gctx, conv, signatory, kind); err != nil {
				mu.Lock()
				failures[signatory.Role] = err
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failures, err
	}

	return failures, nil
}

func (s *Sender) sendSignatureLink(ctx context.Context, conv convention.Convention, signatory convention.Signatory, kind Kind) error {
	now := s.now().UTC()
	if kind == KindSignatureReminder {
		if err := s.throttle.AssertNotRecentlySent(ctx, ThrottleParams{
			Kind:         kind,
			ConventionID: conv.ID,
			Recipient:    signatory.Email,
			Cooldown:     SignatureReminderCooldown,
			Now:          now,
		}); err != nil {
			return err
		}
	}

	link, err := s.links.IssueForConvention(magiclink.ConventionLinkParams{
		ConventionID: conv.ID,
		Role:         signatory.Role,
		Email:        signatory.Email,
		TargetRoute:  magiclink.RouteSignConvention,
		Lifetime:     magiclink.LifetimeShort,
	})
	if err != nil {
		return err
	}

	if err := s.email.Send(ctx, signatory.Email, kind, link); err != nil {
		return fmt.Errorf("notification: email %s: %w", signatory.Email, err)
	}

	if signatory.Phone != "" && s.sms != nil {
		shortURL, err := s.shortener.Shorten(ctx, link, false)
		if err != nil {
			return err
		}
		if err := s.sms.Send(ctx, signatory.Phone, kind, shortURL); err != nil {
			return fmt.Errorf("notification: sms %s: %w", signatory.Phone, err)
		}
	}

	return s.repo.Save(ctx, Notification{
		ID:             s.idGen(),
		Kind:           kind,
		ConventionID:   conv.ID,
		RecipientEmail: signatory.Email,
		RecipientPhone: signatory.Phone,
		CreatedAt:      now,
	})
}

// SendAssessmentLink mails the establishment tutor the assessment form link
// once the convention is validated. Repeated sends share the 24h cool-down.
func (s *Sender) SendAssessmentLink(ctx context.Context, conventionID string) error {
	conv, err := s.conventions.GetByID(ctx, conventionID)
	if err != nil {
		return err
	}
	if conv.Status != convention.StatusAcceptedByValidator {
		return fmt.Errorf("notification: convention %s is not validated (status=%s)", conv.ID, conv.Status)
	}

	tutor := conv.EstablishmentTutor
	now := s.now().UTC()
	if err := s.throttle.AssertNotRecentlySent(ctx, ThrottleParams{
		Kind:         KindAssessmentReminder,
		ConventionID: conv.ID,
		Recipient:    tutor.Email,
		Cooldown:     AssessmentReminderCooldown,
		Now:          now,
	}); err != nil {
		return err
	}

	link, err := s.links.IssueForConvention(magiclink.ConventionLinkParams{
		ConventionID: conv.ID,
		Role:         convention.RoleEstablishmentTutor,
		Email:        tutor.Email,
		TargetRoute:  magiclink.RouteAssessment,
		Lifetime:     magiclink.LifetimeLong,
	})
	if err != nil {
		return err
	}

	if err := s.email.Send(ctx, tutor.Email, KindAssessmentReminder, link); err != nil {
		return fmt.Errorf("notification: email %s: %w", tutor.Email, err)
	}

	return s.repo.Save(ctx, Notification{
		ID:             s.idGen(),
		Kind:           KindAssessmentReminder,
		ConventionID:   conv.ID,
		RecipientEmail: tutor.Email,
		RecipientPhone: tutor.Phone,
		CreatedAt:      now,
	})
}
