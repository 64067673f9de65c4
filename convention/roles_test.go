package convention

import (
	"context"
	"errors"
	"testing"

	"immersionflow/agency"
	"immersionflow/auth"
)

func TestResolve_ScopedToken(t *testing.T) {
	resolver := NewRoleResolver(&fakeUsers{})
	conv := testConvention(StatusReadyToSign)

	roles, err := resolver.Resolve(context.Background(), auth.ScopedToken{
		ConventionID: "conv-1",
		Role:         "beneficiary",
		Email:        "bene@example.com",
	}, conv, testAgency())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(roles) != 1 || roles[0] != RoleBeneficiary {
		t.Fatalf("expected exactly [beneficiary], got %v", roles)
	}
}

func TestResolve_ScopedTokenWrongConvention(t *testing.T) {
	resolver := NewRoleResolver(&fakeUsers{})
	conv := testConvention(StatusReadyToSign)

	_, err := resolver.Resolve(context.Background(), auth.ScopedToken{
		ConventionID: "conv-other",
		Role:         "beneficiary",
	}, conv, testAgency())
	if !errors.Is(err, ErrConventionMismatch) {
		t.Fatalf("expected ErrConventionMismatch, got %v", err)
	}
}

func TestResolve_ScopedTokenUnknownRole(t *testing.T) {
	resolver := NewRoleResolver(&fakeUsers{})
	conv := testConvention(StatusReadyToSign)

	_, err := resolver.Resolve(context.Background(), auth.ScopedToken{
		ConventionID: "conv-1",
		Role:         "intruder",
	}, conv, testAgency())
	if err == nil {
		t.Fatal("expected error for unknown role claim")
	}
}

func TestResolve_AuthenticatedUser(t *testing.T) {
	users := &fakeUsers{users: map[string]auth.User{
		"user-counsellor": {ID: "user-counsellor", Email: "counsellor@agency.example.com"},
		"user-admin":      {ID: "user-admin", Email: "admin@example.com", IsBackofficeAdmin: true},
		"user-rep":        {ID: "user-rep", Email: "REP@ACME.example.com"},
		"user-both": {
			ID:                "user-both",
			Email:             "rep@acme.example.com",
			IsBackofficeAdmin: true,
		},
		"user-nobody": {ID: "user-nobody", Email: "nobody@example.com"},
	}}
	resolver := NewRoleResolver(users)
	conv := testConvention(StatusReadyToSign)

	ag := testAgency()
	ag.UserRights["user-both"] = agency.Right{Roles: []agency.Role{agency.RoleValidator}}

	tests := []struct {
		name      string
		userID    string
		wantRoles []Role
		wantErr   error
	}{
		{name: "agency right yields its roles", userID: "user-counsellor", wantRoles: []Role{RoleCounsellor}},
		{name: "back-office flag yields back_office", userID: "user-admin", wantRoles: []Role{RoleBackOffice}},
		{
			name:      "email match yields establishment representative case-insensitively",
			userID:    "user-rep",
			wantRoles: []Role{RoleEstablishmentRepresentative},
		},
		{
			name:      "roles accumulate across sources",
			userID:    "user-both",
			wantRoles: []Role{RoleBackOffice, RoleEstablishmentRepresentative, RoleValidator},
		},
		{name: "no source yields typed failure", userID: "user-nobody", wantErr: ErrNoRightsOnAgency},
		{name: "unknown account", userID: "user-ghost", wantErr: auth.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles, err := resolver.Resolve(context.Background(), auth.AuthenticatedUser{UserID: tt.userID}, conv, ag)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}
			if len(roles) != len(tt.wantRoles) {
				t.Fatalf("expected roles %v, got %v", tt.wantRoles, roles)
			}
			for i := range roles {
				if roles[i] != tt.wantRoles[i] {
					t.Fatalf("expected roles %v, got %v", tt.wantRoles, roles)
				}
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if _, err := ParseRole("counsellor"); err != nil {
		t.Fatalf("expected counsellor to parse, got %v", err)
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
	if _, err := ParseRole(""); err == nil {
		t.Fatal("expected empty role to fail")
	}
}

func TestRole_IsSignatory(t *testing.T) {
	for _, role := range SignatoryRoles {
		if !role.IsSignatory() {
			t.Errorf("expected %s to be a signatory role", role)
		}
	}
	for _, role := range []Role{RoleCounsellor, RoleValidator, RoleBackOffice, RoleEstablishmentTutor} {
		if role.IsSignatory() {
			t.Errorf("expected %s not to be a signatory role", role)
		}
	}
}
