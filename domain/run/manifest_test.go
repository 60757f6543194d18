package run

import (
	"testing"

	"gosobol/domain/core"
	"gosobol/domain/sensitivity"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	fp1 := NewRunFingerprint(core.Hash("design"), 42, 1000, "second", "random", 100, "1.0.0")
	fp2 := NewRunFingerprint(core.Hash("design"), 42, 1000, "second", "random", 100, "1.0.0")

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.Seed != 42 || fp1.SampleCount != 1000 {
		t.Errorf("Fingerprint lost parameters: %+v", fp1)
	}
}

func TestRunFingerprint_SensitiveToSeed(t *testing.T) {
	fp1 := NewRunFingerprint(core.Hash("design"), 42, 1000, "second", "random", 100, "1.0.0")
	fp2 := NewRunFingerprint(core.Hash("design"), 43, 1000, "second", "random", 100, "1.0.0")

	if fp1.Fingerprint == fp2.Fingerprint {
		t.Error("Different seeds should produce different fingerprints")
	}
}

func TestRunManifest_Validate(t *testing.T) {
	a := [][]float64{{0.1, 0.2, 0.3, 0.4}}
	b := [][]float64{{0.5, 0.6, 0.7, 0.8}}
	design, err := sensitivity.NewDesignMatrix(a, b, sensitivity.SchemeSecondOrder)
	if err != nil {
		t.Fatalf("Failed to build design: %v", err)
	}

	manifest := NewRunManifest(core.NewRunID(), design, 42, "random", 100, 0.95, 2.0, "dev")
	if err := manifest.Validate(); err != nil {
		t.Errorf("Expected valid manifest, got %v", err)
	}
	if manifest.SampleCount != 1 || manifest.Scheme != sensitivity.SchemeSecondOrder {
		t.Errorf("Manifest did not capture design: %+v", manifest)
	}

	manifest.CodeVersion = ""
	if err := manifest.Validate(); err == nil {
		t.Error("Expected error for empty code version")
	}

	manifest.CodeVersion = "dev"
	manifest.RunID = ""
	if err := manifest.Validate(); err == nil {
		t.Error("Expected error for empty run id")
	}
}
