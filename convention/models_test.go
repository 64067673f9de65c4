package convention

import (
	"testing"
	"time"
)

func signedAt(t time.Time) *time.Time {
	return &t
}

func TestSignatories_StatusAfterSigning(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		signatories Signatories
		want        Status
	}{
		{
			name: "two slots one signed",
			signatories: Signatories{
				Beneficiary:                 Signatory{Role: RoleBeneficiary, SignedAt: signedAt(now)},
				EstablishmentRepresentative: Signatory{Role: RoleEstablishmentRepresentative},
			},
			want: StatusPartiallySigned,
		},
		{
			name: "two slots both signed",
			signatories: Signatories{
				Beneficiary:                 Signatory{Role: RoleBeneficiary, SignedAt: signedAt(now)},
				EstablishmentRepresentative: Signatory{Role: RoleEstablishmentRepresentative, SignedAt: signedAt(now)},
			},
			want: StatusInReview,
		},
		{
			name: "optional representative still unsigned",
			signatories: Signatories{
				Beneficiary:                 Signatory{Role: RoleBeneficiary, SignedAt: signedAt(now)},
				EstablishmentRepresentative: Signatory{Role: RoleEstablishmentRepresentative, SignedAt: signedAt(now)},
				BeneficiaryRepresentative:   &Signatory{Role: RoleBeneficiaryRepresentative},
			},
			want: StatusPartiallySigned,
		},
		{
			name: "all four slots signed",
			signatories: Signatories{
				Beneficiary:                 Signatory{Role: RoleBeneficiary, SignedAt: signedAt(now)},
				EstablishmentRepresentative: Signatory{Role: RoleEstablishmentRepresentative, SignedAt: signedAt(now)},
				BeneficiaryRepresentative:   &Signatory{Role: RoleBeneficiaryRepresentative, SignedAt: signedAt(now)},
				BeneficiaryCurrentEmployer:  &Signatory{Role: RoleBeneficiaryCurrentEmployer, SignedAt: signedAt(now)},
			},
			want: StatusInReview,
		},
		{
			name: "employer present and unsigned blocks completion",
			signatories: Signatories{
				Beneficiary:                 Signatory{Role: RoleBeneficiary, SignedAt: signedAt(now)},
				EstablishmentRepresentative: Signatory{Role: RoleEstablishmentRepresentative, SignedAt: signedAt(now)},
				BeneficiaryCurrentEmployer:  &Signatory{Role: RoleBeneficiaryCurrentEmployer},
			},
			want: StatusPartiallySigned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.signatories.StatusAfterSigning(); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSignatories_ForRole(t *testing.T) {
	s := Signatories{
		Beneficiary:                 Signatory{Role: RoleBeneficiary},
		EstablishmentRepresentative: Signatory{Role: RoleEstablishmentRepresentative},
	}

	if slot := s.ForRole(RoleBeneficiary); slot == nil {
		t.Fatal("expected beneficiary slot")
	}
	if slot := s.ForRole(RoleBeneficiaryRepresentative); slot != nil {
		t.Fatal("expected nil for absent beneficiary representative")
	}
	if slot := s.ForRole(RoleCounsellor); slot != nil {
		t.Fatal("expected nil for non-signatory role")
	}
}

func TestSignatories_ClearSignatures(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	s := Signatories{
		Beneficiary:                 Signatory{Role: RoleBeneficiary, SignedAt: signedAt(now)},
		EstablishmentRepresentative: Signatory{Role: RoleEstablishmentRepresentative, SignedAt: signedAt(now)},
		BeneficiaryRepresentative:   &Signatory{Role: RoleBeneficiaryRepresentative, SignedAt: signedAt(now)},
	}

	s.ClearSignatures()

	for _, signatory := range s.Present() {
		if signatory.Signed() {
			t.Fatalf("expected %s signature cleared", signatory.Role)
		}
	}
}

func TestStatus_EventTopic(t *testing.T) {
	if _, ok := StatusReadyToSign.EventTopic(); ok {
		t.Fatal("ready_to_sign must publish no event")
	}

	want := map[Status]string{
		StatusPartiallySigned:      TopicPartiallySigned,
		StatusInReview:             TopicFullySigned,
		StatusAcceptedByCounsellor: TopicAcceptedByCounsellor,
		StatusAcceptedByValidator:  TopicAcceptedByValidator,
		StatusRejected:             TopicRejected,
		StatusCancelled:            TopicCancelled,
		StatusDeprecated:           TopicDeprecated,
	}
	for status, topic := range want {
		got, ok := status.EventTopic()
		if !ok || got != topic {
			t.Fatalf("status %s: expected topic %s, got %s (ok=%v)", status, topic, got, ok)
		}
	}
}
