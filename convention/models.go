package convention

import "time"

// Signatory is one human actor whose signature may be required on a
// convention. Presence of SignedAt means the actor has signed.
type Signatory struct {
	Role      Role   `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	SignedAt *time.Time `json:"signed_at,omitempty"`
}

// Signed reports whether the actor has already signed.
func (s Signatory) Signed() bool {
	return s.SignedAt != nil
}

// Signatories is the fixed-shape set of signature slots on a convention.
// Beneficiary and EstablishmentRepresentative always exist; the other two
// depend on the convention content.
type Signatories struct {
	Beneficiary                 Signatory  `json:"beneficiary"`
	EstablishmentRepresentative Signatory  `json:"establishment_representative"`
	BeneficiaryRepresentative   *Signatory `json:"beneficiary_representative,omitempty"`
	BeneficiaryCurrentEmployer  *Signatory `json:"beneficiary_current_employer,omitempty"`
}

// ForRole returns the slot matching role, or nil when the convention has no
// such actor.
func (s *Signatories) ForRole(role Role) *Signatory {
	switch role {
	case RoleBeneficiary:
		return &s.Beneficiary
	case RoleEstablishmentRepresentative:
		return &s.EstablishmentRepresentative
	case RoleBeneficiaryRepresentative:
		return s.BeneficiaryRepresentative
	case RoleBeneficiaryCurrentEmployer:
		return s.BeneficiaryCurrentEmployer
	default:
		return nil
	}
}

// Present lists the slots that exist on this convention.
func (s Signatories) Present() []Signatory {
	present := []Signatory{s.Beneficiary, s.EstablishmentRepresentative}
	if s.BeneficiaryRepresentative != nil {
		present = append(present, *s.BeneficiaryRepresentative)
	}
	if s.BeneficiaryCurrentEmployer != nil {
		present = append(present, *s.BeneficiaryCurrentEmployer)
	}
	return present
}

// AllSigned reports whether every present slot carries a signature.
func (s Signatories) AllSigned() bool {
	for _, signatory := range s.Present() {
		if !signatory.Signed() {
			return false
		}
	}
	return true
}

// StatusAfterSigning computes the status a signature produces: in_review once
// every present slot has signed, partially_signed otherwise.
func (s Signatories) StatusAfterSigning() Status {
	if s.AllSigned() {
		return StatusInReview
	}
	return StatusPartiallySigned
}

// ClearSignatures drops every recorded signature. Content edits reopen the
// signing round.
func (s *Signatories) ClearSignatures() {
	s.Beneficiary.SignedAt = nil
	s.EstablishmentRepresentative.SignedAt = nil
	if s.BeneficiaryRepresentative != nil {
		s.BeneficiaryRepresentative.SignedAt = nil
	}
	if s.BeneficiaryCurrentEmployer != nil {
		s.BeneficiaryCurrentEmployer.SignedAt = nil
	}
}

// Tutor is the establishment-side supervisor of the immersion. The tutor is
// distinct from the establishment representative, though both may be the same
// person.
type Tutor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Job       string `json:"job"`
}

// Convention is the aggregate root: a multi-party agreement authorizing a
// work-immersion period, moving through sequential signatures and an agency
// review decision. UpdatedAt doubles as the optimistic-concurrency token.
type Convention struct {
	ID                  string
	Status              Status
	AgencyID            string
	Signatories         Signatories
	EstablishmentTutor  Tutor
	StatusJustification *string
	CounsellorName      *string
	ValidatorName       *string
	DateSubmitted       *time.Time
	DateValidation      *time.Time
	DateApproval        *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
