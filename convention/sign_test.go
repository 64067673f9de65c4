package convention

import (
	"context"
	"errors"
	"testing"
	"time"

	"immersionflow/auth"
)

func beneficiaryToken() auth.ScopedToken {
	return auth.ScopedToken{ConventionID: "conv-1", Role: "beneficiary", Email: "bene@example.com"}
}

func representativeToken() auth.ScopedToken {
	return auth.ScopedToken{ConventionID: "conv-1", Role: "establishment_representative", Email: "rep@acme.example.com"}
}

func TestSign_FullRound(t *testing.T) {
	f := newFixture(testConvention(StatusReadyToSign))
	ctx := context.Background()

	first, err := f.svc.Sign(ctx, "conv-1", beneficiaryToken())
	if err != nil {
		t.Fatalf("first signature: %v", err)
	}
	if first.Role != RoleBeneficiary {
		t.Errorf("expected beneficiary role, got %s", first.Role)
	}
	if first.Convention.Status != StatusPartiallySigned {
		t.Fatalf("expected partially_signed after first signature, got %s", first.Convention.Status)
	}
	if !first.Convention.Signatories.Beneficiary.Signed() {
		t.Errorf("expected beneficiary signature recorded")
	}
	if first.Convention.DateSubmitted != nil {
		t.Errorf("expected no submission date while signatures remain")
	}
	if len(f.outbox.byTopic(TopicPartiallySigned)) != 1 {
		t.Errorf("expected one partially_signed event")
	}
	if !f.pool.tx.committed {
		t.Errorf("expected first transaction committed")
	}

	second, err := f.svc.Sign(ctx, "conv-1", representativeToken())
	if err != nil {
		t.Fatalf("second signature: %v", err)
	}
	if second.Convention.Status != StatusInReview {
		t.Fatalf("expected in_review after last signature, got %s", second.Convention.Status)
	}
	if second.Convention.DateSubmitted == nil || !second.Convention.DateSubmitted.Equal(testNow) {
		t.Errorf("expected submission date stamped by the completing signature")
	}
	if got := len(f.outbox.byTopic(TopicFullySigned)); got != 1 {
		t.Fatalf("expected exactly one fully_signed event, got %d", got)
	}

	event := f.outbox.byTopic(TopicFullySigned)[0]
	if event.payload["signatory_role"] != string(RoleEstablishmentRepresentative) {
		t.Errorf("expected the completing role in the event, got %v", event.payload["signatory_role"])
	}
	trigger := event.payload["triggered_by"].(TriggeredBy)
	if trigger.Kind != "convention_magic_link" || trigger.Role != RoleEstablishmentRepresentative {
		t.Errorf("unexpected trigger %+v", trigger)
	}
}

func TestSign_AlreadySigned(t *testing.T) {
	f := newFixture(testConvention(StatusReadyToSign))
	ctx := context.Background()

	if _, err := f.svc.Sign(ctx, "conv-1", beneficiaryToken()); err != nil {
		t.Fatalf("first signature: %v", err)
	}
	writes := f.store.updateCalls

	_, err := f.svc.Sign(ctx, "conv-1", beneficiaryToken())
	if !errors.Is(err, ErrAlreadySigned) {
		t.Fatalf("expected ErrAlreadySigned, got %v", err)
	}
	if f.store.updateCalls != writes {
		t.Errorf("expected no additional write on duplicate signature")
	}
	if f.pool.tx.committed {
		t.Errorf("expected the duplicate attempt rolled back")
	}
}

func TestSign_ActorMissing(t *testing.T) {
	f := newFixture(testConvention(StatusReadyToSign))

	_, err := f.svc.Sign(context.Background(), "conv-1", auth.ScopedToken{
		ConventionID: "conv-1",
		Role:         "beneficiary_representative",
	})
	if !errors.Is(err, ErrActorMissing) {
		t.Fatalf("expected ErrActorMissing, got %v", err)
	}
}

func TestSign_NonSignatoryRole(t *testing.T) {
	f := newFixture(testConvention(StatusReadyToSign))

	_, err := f.svc.Sign(context.Background(), "conv-1", auth.ScopedToken{
		ConventionID: "conv-1",
		Role:         "counsellor",
	})
	if !errors.Is(err, ErrRoleNotAllowedToSign) {
		t.Fatalf("expected ErrRoleNotAllowedToSign, got %v", err)
	}
}

func TestSign_TokenBoundToOtherConvention(t *testing.T) {
	f := newFixture(testConvention(StatusReadyToSign))

	token := beneficiaryToken()
	token.ConventionID = "conv-other"
	_, err := f.svc.Sign(context.Background(), "conv-1", token)
	if !errors.Is(err, ErrConventionMismatch) {
		t.Fatalf("expected ErrConventionMismatch, got %v", err)
	}
	if f.store.updateCalls != 0 {
		t.Errorf("expected no write")
	}
}

func TestSign_InvalidMobilePhone(t *testing.T) {
	conv := testConvention(StatusReadyToSign)
	conv.Signatories.Beneficiary.Phone = "0123456789" // landline
	f := newFixture(conv)

	_, err := f.svc.Sign(context.Background(), "conv-1", beneficiaryToken())
	if !errors.Is(err, ErrInvalidMobilePhone) {
		t.Fatalf("expected ErrInvalidMobilePhone, got %v", err)
	}
}

func TestSign_EmptyPhoneAccepted(t *testing.T) {
	conv := testConvention(StatusReadyToSign)
	conv.Signatories.Beneficiary.Phone = ""
	f := newFixture(conv)

	if _, err := f.svc.Sign(context.Background(), "conv-1", beneficiaryToken()); err != nil {
		t.Fatalf("expected signature without phone to pass, got %v", err)
	}
}

func TestSign_ConnectedRepresentative(t *testing.T) {
	f := newFixture(testConvention(StatusReadyToSign))

	result, err := f.svc.Sign(context.Background(), "conv-1", auth.AuthenticatedUser{UserID: "user-rep"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result.Role != RoleEstablishmentRepresentative {
		t.Fatalf("expected establishment_representative, got %s", result.Role)
	}
	if !result.Convention.Signatories.EstablishmentRepresentative.Signed() {
		t.Errorf("expected representative signature recorded")
	}
}

func TestSign_ConnectedUserNotASignatory(t *testing.T) {
	f := newFixture(testConvention(StatusReadyToSign))

	_, err := f.svc.Sign(context.Background(), "conv-1", auth.AuthenticatedUser{UserID: "user-counsellor"})
	if !errors.Is(err, ErrRoleNotAllowedToSign) {
		t.Fatalf("expected ErrRoleNotAllowedToSign, got %v", err)
	}
}

func TestSign_ReviewedConventionRejectsSignature(t *testing.T) {
	conv := testConvention(StatusInReview)
	conv.Signatories.Beneficiary.SignedAt = signedAt(testNow.Add(-time.Hour))
	conv.Signatories.EstablishmentRepresentative.SignedAt = signedAt(testNow.Add(-time.Hour))
	f := newFixture(conv)

	// A new optional slot appearing here would compute a signable target, so
	// the transition table is the final guard.
	conv.Signatories.BeneficiaryRepresentative = &Signatory{Role: RoleBeneficiaryRepresentative}
	f.store.conv = conv

	_, err := f.svc.Sign(context.Background(), "conv-1", auth.ScopedToken{
		ConventionID: "conv-1",
		Role:         "beneficiary_representative",
	})
	if !errors.Is(err, ErrBadStatusTransition) {
		t.Fatalf("expected ErrBadStatusTransition, got %v", err)
	}
}

func TestSign_UnknownConvention(t *testing.T) {
	f := newFixture(testConvention(StatusReadyToSign))

	_, err := f.svc.Sign(context.Background(), "conv-ghost", beneficiaryToken())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIsMobilePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+33612345678", true},
		{"0612345678", true},
		{"07 12 34 56 78", true},
		{"0123456789", false},
		{"12", false},
		{"not a number", false},
	}
	for _, tt := range tests {
		if got := isMobilePhone(tt.phone); got != tt.want {
			t.Errorf("isMobilePhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}
