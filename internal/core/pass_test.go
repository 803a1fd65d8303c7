package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestPassRecoverSkipsOnlySkipErrors(t *testing.T) {
	pass := &Pass{Source: Source{Name: "soy-genes"}, Logger: NoopLogger()}
	if err := pass.Recover(12, SkipError{Key: "Gm01", Reason: "gene without ID or Name"}); err != nil {
		t.Fatalf("skip error must be absorbed, got %v", err)
	}
	if err := pass.Recover(13, fmt.Errorf("wrapped: %w", SkipError{Key: "x", Reason: "y"})); err != nil {
		t.Fatalf("wrapped skip error must be absorbed, got %v", err)
	}
	if pass.Skipped() != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", pass.Skipped())
	}
	fatal := PreconditionError{Source: "soy-genes", Line: 14, Missing: "TaxonID"}
	if err := pass.Recover(14, fatal); !errors.Is(err, fatal) {
		t.Fatalf("other errors must pass through, got %v", err)
	}
	if err := pass.Recover(15, nil); err != nil {
		t.Fatalf("nil must stay nil, got %v", err)
	}
	if pass.Skipped() != 2 {
		t.Fatalf("only skip errors count, got %d", pass.Skipped())
	}
}

func TestPassCVTermFallbacks(t *testing.T) {
	pass := &Pass{CVTerms: map[string]string{"marker": "genetic_marker", "empty": ""}}
	cases := []struct{ key, def, want string }{
		{"marker", "SNP", "genetic_marker"},
		{"empty", "QTL", "QTL"},
		{"gene", "", "gene"},
	}
	for _, tc := range cases {
		if got := pass.CVTerm(tc.key, tc.def); got != tc.want {
			t.Fatalf("CVTerm(%q, %q) = %q, want %q", tc.key, tc.def, got, tc.want)
		}
	}
}
