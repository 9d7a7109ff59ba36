package store

import (
	"context"
	"errors"
	"testing"

	"github.com/claimsift/claimsift/internal/model"
)

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sources := []model.Source{{ID: "s1", URL: "https://example.com", Content: "text", Reliability: 3}}
	claims := []model.Claim{{ID: "c1", Text: "a claim", Confidence: 0.6}}

	if err := m.SaveSources(ctx, "acme", sources); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveClaims(ctx, "acme", claims); err != nil {
		t.Fatal(err)
	}

	gotSources, err := m.Sources(ctx, "acme")
	if err != nil || len(gotSources) != 1 {
		t.Fatalf("Sources() = (%v, %v)", gotSources, err)
	}
	gotClaims, err := m.Claims(ctx, "acme")
	if err != nil || len(gotClaims) != 1 {
		t.Fatalf("Claims() = (%v, %v)", gotClaims, err)
	}
}

func TestMemory_UnknownSubject(t *testing.T) {
	m := NewMemory()
	if _, err := m.Sources(context.Background(), "nothing"); !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestMemory_UpdateVerification(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.SaveClaims(ctx, "acme", []model.Claim{
		{ID: "c1", Text: "claim one", Confidence: 0.6},
		{ID: "c2", Text: "claim two", Confidence: 0.5},
	}); err != nil {
		t.Fatal(err)
	}

	results := []model.VerificationResult{{
		ClaimID:           "c1",
		VerificationScore: 0.92,
		SupportingSources: []model.SupportingSource{{SourceID: "s1"}, {SourceID: "s2"}},
	}}
	if err := m.UpdateVerification(ctx, results); err != nil {
		t.Fatal(err)
	}

	claims, err := m.Claims(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range claims {
		switch c.ID {
		case "c1":
			if c.Confidence != 0.92 || c.CorroborationCount != 2 {
				t.Errorf("c1 not updated: %+v", c)
			}
		case "c2":
			if c.Confidence != 0.5 || c.CorroborationCount != 0 {
				t.Errorf("c2 must be untouched: %+v", c)
			}
		}
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.SaveClaims(ctx, "acme", []model.Claim{{ID: "c1", Text: "original"}}); err != nil {
		t.Fatal(err)
	}

	claims, _ := m.Claims(ctx, "acme")
	claims[0].Text = "mutated"

	again, _ := m.Claims(ctx, "acme")
	if again[0].Text != "original" {
		t.Error("caller mutation leaked into the store")
	}
}
