package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetModelsDirExplicit(t *testing.T) {
	if got := GetModelsDir("/opt/signscan/models"); got != "/opt/signscan/models" {
		t.Fatalf("GetModelsDir = %q", got)
	}
}

func TestGetModelsDirEnvOverride(t *testing.T) {
	t.Setenv(EnvModelsDir, "/srv/models")
	if got := GetModelsDir(""); got != "/srv/models" {
		t.Fatalf("GetModelsDir = %q, want env override", got)
	}
}

func TestGetDetectionModelPath(t *testing.T) {
	standard := GetDetectionModelPath("/m", false)
	if standard != filepath.Join("/m", DetectionStandard) {
		t.Fatalf("standard path = %q", standard)
	}
	compact := GetDetectionModelPath("/m", true)
	if !strings.HasSuffix(compact, DetectionCompact) {
		t.Fatalf("compact path = %q", compact)
	}
}

func TestCompanionPaths(t *testing.T) {
	if got := GetClassNamesPath("/m"); got != filepath.Join("/m", ClassNamesFile) {
		t.Fatalf("class names path = %q", got)
	}
	if got := GetTaxonomyPath("/m"); got != filepath.Join("/m", TaxonomyFile) {
		t.Fatalf("taxonomy path = %q", got)
	}
	if got := GetAnchorsPath("/m"); got != filepath.Join("/m", AnchorsFile) {
		t.Fatalf("anchors path = %q", got)
	}
}

func TestValidateModelPath(t *testing.T) {
	dir := t.TempDir()

	if err := ValidateModelPath(filepath.Join(dir, "missing.onnx")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if err := ValidateModelPath(dir); err == nil {
		t.Fatal("expected error for directory")
	}

	path := filepath.Join(dir, "model.onnx")
	if err := os.WriteFile(path, []byte("stub"), 0o600); err != nil {
		t.Fatalf("write model stub: %v", err)
	}
	if err := ValidateModelPath(path); err != nil {
		t.Fatalf("ValidateModelPath: %v", err)
	}
}
