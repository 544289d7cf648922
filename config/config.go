// Package config loads Template definitions for breaker.TemplateSet from a
// YAML document, with environment-variable overrides for the handful of
// settings operators commonly tune per-deployment without a redeploy.
// Grounded on itsneelabh-gomind/core's three-layer priority (defaults < env
// < explicit) and oriys-nova/internal/config's flat env-var-per-field
// convention, adapted from their JSON-struct-file approach to YAML via
// gopkg.in/yaml.v3 since no teacher component parses YAML itself.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenwick-labs/breaker/internal/engine"
)

// templateDoc mirrors engine.Template/Settings with YAML tags and
// string-friendly duration fields (time.Duration has no native YAML
// encoding, so durations are parsed via time.ParseDuration).
type templateDoc struct {
	Name    string         `yaml:"name"`
	Parent  string         `yaml:"parent"`
	Partial settingsDoc    `yaml:"settings"`
}

type settingsDoc struct {
	FailureThreshold   uint32   `yaml:"failure_threshold"`
	FailureWindow      string   `yaml:"failure_window"`
	FailureRate        float64  `yaml:"failure_rate"`
	MinimumCalls       uint32   `yaml:"minimum_calls"`
	SuccessThreshold   uint32   `yaml:"success_threshold"`
	HalfOpenCalls      uint32   `yaml:"half_open_calls"`
	ResetTimeout       string   `yaml:"reset_timeout"`
	ResetTimeoutJitter *float64 `yaml:"reset_timeout_jitter"`
	Timeout            string   `yaml:"timeout"`
	MaxConcurrent      uint32   `yaml:"max_concurrent"`
	CascadesTo         []string `yaml:"cascades_to"`
	DependentCircuits  []string `yaml:"depends_on"`
}

type document struct {
	Templates []templateDoc `yaml:"templates"`
}

func (d settingsDoc) toSettings() (engine.Settings, error) {
	s := engine.Settings{
		FailureThreshold:   d.FailureThreshold,
		FailureRate:        d.FailureRate,
		MinimumCalls:       d.MinimumCalls,
		SuccessThreshold:   d.SuccessThreshold,
		HalfOpenCalls:      d.HalfOpenCalls,
		ResetTimeoutJitter: d.ResetTimeoutJitter,
		MaxConcurrent:      d.MaxConcurrent,
		CascadesTo:         d.CascadesTo,
		DependentCircuits:  d.DependentCircuits,
	}
	var err error
	if s.FailureWindow, err = parseOptionalDuration(d.FailureWindow); err != nil {
		return s, fmt.Errorf("failure_window: %w", err)
	}
	if s.ResetTimeout, err = parseOptionalDuration(d.ResetTimeout); err != nil {
		return s, fmt.Errorf("reset_timeout: %w", err)
	}
	if s.Timeout, err = parseOptionalDuration(d.Timeout); err != nil {
		return s, fmt.Errorf("timeout: %w", err)
	}
	return s, nil
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// LoadYAML parses a YAML document of named, parent-chained template
// fragments into a ready-to-use *engine.TemplateSet. The document shape is:
//
//	templates:
//	  - name: base
//	    settings:
//	      failure_threshold: 5
//	      reset_timeout: 30s
//	  - name: strict
//	    parent: base
//	    settings:
//	      failure_threshold: 2
func LoadYAML(data []byte) (*engine.TemplateSet, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &engine.ConfigurationError{Message: "invalid template YAML: " + err.Error()}
	}

	ts := engine.NewTemplateSet()
	for _, td := range doc.Templates {
		if td.Name == "" {
			return nil, &engine.ConfigurationError{Message: "template entry missing name"}
		}
		settings, err := td.Partial.toSettings()
		if err != nil {
			return nil, &engine.ConfigurationError{Message: fmt.Sprintf("template %q: %v", td.Name, err)}
		}
		ts.Define(engine.Template{Name: td.Name, Parent: td.Parent, Partial: settings})
	}
	return ts, nil
}

// LoadYAMLFile reads path and calls LoadYAML.
func LoadYAMLFile(path string) (*engine.TemplateSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template file %s: %w", path, err)
	}
	return LoadYAML(data)
}

// ApplyEnvOverrides mutates settings in place from BREAKER_<NAME>_<FIELD>
// environment variables, following the teacher's per-field override
// convention — useful for nudging a resolved Template's defaults (e.g.
// FailureThreshold, ResetTimeout) at deploy time without editing YAML.
func ApplyEnvOverrides(settings *engine.Settings) {
	prefix := "BREAKER_" + strings.ToUpper(strings.ReplaceAll(settings.Name, ".", "_")) + "_"

	if v := os.Getenv(prefix + "FAILURE_THRESHOLD"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			settings.FailureThreshold = uint32(n)
		}
	}
	if v := os.Getenv(prefix + "FAILURE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			settings.FailureRate = f
		}
	}
	if v := os.Getenv(prefix + "RESET_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.ResetTimeout = d
		}
	}
	if v := os.Getenv(prefix + "TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv(prefix + "MAX_CONCURRENT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			settings.MaxConcurrent = uint32(n)
		}
	}
}
