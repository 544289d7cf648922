package config

import (
	"os"
	"testing"
	"time"
)

const sampleYAML = `
templates:
  - name: base
    settings:
      failure_threshold: 5
      reset_timeout: 30s
      reset_timeout_jitter: 0.1
  - name: strict
    parent: base
    settings:
      failure_threshold: 2
      cascades_to: ["downstream-a"]
`

func TestLoadYAMLResolvesParentChain(t *testing.T) {
	ts, err := LoadYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}

	settings, err := ts.Resolve("strict", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if settings.FailureThreshold != 2 {
		t.Fatalf("FailureThreshold = %d, want 2", settings.FailureThreshold)
	}
	if settings.ResetTimeout != 30*time.Second {
		t.Fatalf("ResetTimeout = %v, want 30s (inherited)", settings.ResetTimeout)
	}
	if len(settings.CascadesTo) != 1 || settings.CascadesTo[0] != "downstream-a" {
		t.Fatalf("CascadesTo = %v", settings.CascadesTo)
	}
}

func TestLoadYAMLMissingNameErrors(t *testing.T) {
	_, err := LoadYAML([]byte("templates:\n  - settings:\n      failure_threshold: 1\n"))
	if err == nil {
		t.Fatal("expected error for a template entry with no name")
	}
}

func TestLoadYAMLInvalidDurationErrors(t *testing.T) {
	_, err := LoadYAML([]byte("templates:\n  - name: bad\n    settings:\n      reset_timeout: not-a-duration\n"))
	if err == nil {
		t.Fatal("expected error for an unparseable duration")
	}
}

func TestLoadYAMLFileReadsFromDisk(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "templates-*.yaml")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString(sampleYAML); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	ts, err := LoadYAMLFile(f.Name())
	if err != nil {
		t.Fatalf("LoadYAMLFile: %v", err)
	}
	if _, err := ts.Resolve("base", nil); err != nil {
		t.Fatalf("Resolve(base): %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("BREAKER_PAYMENTS_FAILURE_THRESHOLD", "9")
	t.Setenv("BREAKER_PAYMENTS_RESET_TIMEOUT", "5s")

	settings, err := settingsDoc{FailureThreshold: 5, ResetTimeout: "30s"}.toSettings()
	if err != nil {
		t.Fatalf("toSettings: %v", err)
	}
	settings.Name = "payments"

	ApplyEnvOverrides(&settings)
	if settings.FailureThreshold != 9 {
		t.Fatalf("FailureThreshold = %d, want 9 (env override)", settings.FailureThreshold)
	}
	if settings.ResetTimeout != 5*time.Second {
		t.Fatalf("ResetTimeout = %v, want 5s (env override)", settings.ResetTimeout)
	}
}
