package mfa

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/wisbric/leadping/internal/identity"
)

// fakeProvider is an in-memory identity.Provider for gate and service tests.
type fakeProvider struct {
	factors        []identity.Factor
	challengeCalls int
	verifyCalls    int
	verifyErr      error

	lastFactorID    string
	lastChallengeID string
	lastCode        string
}

func (f *fakeProvider) GetUser(context.Context, string) (*identity.User, error) {
	return nil, &identity.Error{Status: 404, Message: "User not found"}
}

func (f *fakeProvider) ListFactors(context.Context, string) ([]identity.Factor, error) {
	return f.factors, nil
}

func (f *fakeProvider) CreateChallenge(_ context.Context, _, factorID string) (*identity.Challenge, error) {
	f.challengeCalls++
	f.lastFactorID = factorID
	return &identity.Challenge{ID: fmt.Sprintf("chal-%d", f.challengeCalls)}, nil
}

func (f *fakeProvider) VerifyChallenge(_ context.Context, _, factorID, challengeID, code string) error {
	f.verifyCalls++
	f.lastFactorID = factorID
	f.lastChallengeID = challengeID
	f.lastCode = code
	return f.verifyErr
}

func (f *fakeProvider) EnrollFactor(_ context.Context, _, friendlyName string) (*identity.Enrollment, error) {
	return &identity.Enrollment{FactorID: "factor-new", Secret: "SECRET", QRCode: "otpauth://totp/" + friendlyName}, nil
}

func (f *fakeProvider) DeleteFactor(context.Context, string, string) error { return nil }

func (f *fakeProvider) UpdatePassword(context.Context, string, string) error { return nil }

func (f *fakeProvider) DeleteUser(context.Context, string) error { return nil }

func verifiedFactor(id string) identity.Factor {
	return identity.Factor{ID: id, FriendlyName: "phone", Status: "verified"}
}

func TestGateNoFactors(t *testing.T) {
	p := &fakeProvider{}
	g := NewGate(p, "acct-1")

	if err := g.Begin(context.Background()); !errors.Is(err, ErrNoFactorsEnrolled) {
		t.Fatalf("Begin() = %v, want ErrNoFactorsEnrolled", err)
	}
	if p.challengeCalls != 0 {
		t.Errorf("challenge calls = %d, want 0", p.challengeCalls)
	}
}

func TestGateUnverifiedFactorsIgnored(t *testing.T) {
	p := &fakeProvider{factors: []identity.Factor{
		{ID: "factor-1", Status: "unverified"},
	}}
	g := NewGate(p, "acct-1")

	if err := g.Begin(context.Background()); !errors.Is(err, ErrNoFactorsEnrolled) {
		t.Fatalf("Begin() = %v, want ErrNoFactorsEnrolled", err)
	}
}

func TestGateSingleFactorAutoSelect(t *testing.T) {
	p := &fakeProvider{factors: []identity.Factor{verifiedFactor("factor-1")}}
	g := NewGate(p, "acct-1")

	if err := g.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() error: %v", err)
	}
	if g.FactorID() != "factor-1" {
		t.Errorf("FactorID() = %q, want auto-selected factor-1", g.FactorID())
	}

	ch, err := g.Challenge(context.Background())
	if err != nil {
		t.Fatalf("Challenge() error: %v", err)
	}
	if ch.ID == "" {
		t.Error("Challenge() returned empty id")
	}
}

func TestGateMultipleFactorsRequireSelection(t *testing.T) {
	p := &fakeProvider{factors: []identity.Factor{verifiedFactor("factor-1"), verifiedFactor("factor-2")}}
	g := NewGate(p, "acct-1")

	if err := g.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() error: %v", err)
	}
	if g.FactorID() != "" {
		t.Fatalf("FactorID() = %q, want no auto-selection", g.FactorID())
	}

	if _, err := g.Challenge(context.Background()); !errors.Is(err, ErrFactorSelection) {
		t.Fatalf("Challenge() = %v, want ErrFactorSelection", err)
	}

	if err := g.Select("factor-9"); err == nil {
		t.Fatal("Select(unknown) = nil, want error")
	}
	if err := g.Select("factor-2"); err != nil {
		t.Fatalf("Select(factor-2) error: %v", err)
	}
	if _, err := g.Challenge(context.Background()); err != nil {
		t.Fatalf("Challenge() after Select error: %v", err)
	}
	if p.lastFactorID != "factor-2" {
		t.Errorf("challenged factor = %q, want factor-2", p.lastFactorID)
	}
}

func TestGateVerifySuccess(t *testing.T) {
	p := &fakeProvider{factors: []identity.Factor{verifiedFactor("factor-1")}}
	g := NewGate(p, "acct-1")

	if err := g.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	ch, err := g.Challenge(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Verify(context.Background(), "123456"); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if !g.Verified() {
		t.Error("Verified() = false after successful verify")
	}
	if p.lastChallengeID != ch.ID || p.lastCode != "123456" {
		t.Errorf("provider saw challenge=%q code=%q", p.lastChallengeID, p.lastCode)
	}
}

func TestGateVerifyBadCodeFormatSkipsProvider(t *testing.T) {
	p := &fakeProvider{factors: []identity.Factor{verifiedFactor("factor-1")}}
	g := NewGate(p, "acct-1")

	if err := g.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Challenge(context.Background()); err != nil {
		t.Fatal(err)
	}

	for _, code := range []string{"", "12345", "1234567", "12a456", "12 456"} {
		if err := g.Verify(context.Background(), code); !errors.Is(err, ErrInvalidCodeFormat) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidCodeFormat", code, err)
		}
	}
	if p.verifyCalls != 0 {
		t.Errorf("provider verify calls = %d, want 0", p.verifyCalls)
	}
}

func TestGateRetryUsesFreshChallenge(t *testing.T) {
	p := &fakeProvider{
		factors:   []identity.Factor{verifiedFactor("factor-1")},
		verifyErr: &identity.Error{Status: 422, Message: "Invalid TOTP code entered"},
	}
	g := NewGate(p, "acct-1")

	if err := g.Begin(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, err := g.Challenge(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	err = g.Verify(context.Background(), "000000")
	var pe *identity.Error
	if !errors.As(err, &pe) || pe.Message != "Invalid TOTP code entered" {
		t.Fatalf("Verify() = %v, want verbatim provider error", err)
	}
	if g.Verified() {
		t.Fatal("Verified() = true after rejection")
	}

	// Challenges are single-use; a retry must issue a new one.
	p.verifyErr = nil
	second, err := g.Challenge(context.Background())
	if err != nil {
		t.Fatalf("re-Challenge() error: %v", err)
	}
	if second.ID == first.ID {
		t.Errorf("retry reused challenge %q", second.ID)
	}
	if err := g.Verify(context.Background(), "654321"); err != nil {
		t.Fatalf("Verify() after retry error: %v", err)
	}
}

func TestValidCode(t *testing.T) {
	valid := []string{"000000", "123456", "999999"}
	invalid := []string{"", "12345", "1234567", "abcdef", "12345x", "12.456", "１２３４５６"}

	for _, c := range valid {
		if !ValidCode(c) {
			t.Errorf("ValidCode(%q) = false, want true", c)
		}
	}
	for _, c := range invalid {
		if ValidCode(c) {
			t.Errorf("ValidCode(%q) = true, want false", c)
		}
	}
}
