package platform

import (
	"strings"
	"testing"
)

func TestValidateDependenciesMissingBinary(t *testing.T) {
	err := ValidateDependencies("definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
	if !strings.Contains(err.Error(), "definitely-not-a-real-binary-xyz") {
		t.Errorf("error should name the configured binary, got %q", err)
	}
}

func TestValidateDependenciesPresentBinary(t *testing.T) {
	// ls is on PATH everywhere this runs.
	if err := ValidateDependencies("ls"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
