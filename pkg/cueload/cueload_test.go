// SPDX-License-Identifier: MPL-2.0

package cueload_test

import (
	"strings"
	"testing"

	"pybox-cli/pkg/cueload"
)

const testSchema = `
#Config: {
	container_engine: *"podman" | "docker"
	base_image:       string | *"python:3.11"
	ui: {
		verbose: bool | *false
	}
}
`

type testConfig struct {
	ContainerEngine string `json:"container_engine"`
	BaseImage       string `json:"base_image"`
	UI              struct {
		Verbose bool `json:"verbose"`
	} `json:"ui"`
}

func TestDecode_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := cueload.Decode[testConfig]([]byte(testSchema), []byte(`{}`), "#Config", "config.cue")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if cfg.ContainerEngine != "podman" {
		t.Errorf("ContainerEngine = %q, want schema default podman", cfg.ContainerEngine)
	}
	if cfg.BaseImage != "python:3.11" {
		t.Errorf("BaseImage = %q, want schema default python:3.11", cfg.BaseImage)
	}
}

func TestDecode_UserOverride(t *testing.T) {
	t.Parallel()

	data := []byte(`
container_engine: "docker"
ui: verbose: true
`)
	cfg, err := cueload.Decode[testConfig]([]byte(testSchema), data, "#Config", "config.cue")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if cfg.ContainerEngine != "docker" {
		t.Errorf("ContainerEngine = %q, want docker", cfg.ContainerEngine)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
}

func TestDecode_SchemaViolation(t *testing.T) {
	t.Parallel()

	data := []byte(`container_engine: "lxc"`)
	_, err := cueload.Decode[testConfig]([]byte(testSchema), data, "#Config", "config.cue")
	if err == nil {
		t.Fatal("expected validation error for unsupported engine")
	}
	if !strings.Contains(err.Error(), "config.cue") {
		t.Errorf("error %q does not name the offending file", err)
	}
}

func TestDecode_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := cueload.Decode[testConfig]([]byte(testSchema), []byte(`{{{`), "#Config", "bad.cue")
	if err == nil {
		t.Fatal("expected error for malformed CUE")
	}
}

func TestDecode_FileTooLarge(t *testing.T) {
	t.Parallel()

	huge := make([]byte, cueload.MaxFileSize+1)
	_, err := cueload.Decode[testConfig]([]byte(testSchema), huge, "#Config", "big.cue")
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected size limit error, got %v", err)
	}
}
