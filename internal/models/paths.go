// Package models resolves on-disk paths for the detection model and its
// companion class files.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Model and companion file name constants to avoid typos.
const (
	// Detection models.
	DetectionStandard = "signscan_yolov2.onnx"
	DetectionCompact  = "signscan_yolov2_tiny.onnx"

	// Companion files.
	ClassNamesFile = "classes.txt"
	TaxonomyFile   = "taxonomy.yaml"
	AnchorsFile    = "anchors.txt"
)

// Default models directory.
const DefaultModelsDir = "models"

// Environment variable for models directory override.
const EnvModelsDir = "SIGNSCAN_MODELS_DIR"

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("could not find project root (go.mod not found)")
}

// GetModelsDir returns the models directory path.
// Priority: 1. Explicit modelsDir parameter, 2. Environment variable,
// 3. Project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultModelsDir)
	}
	return DefaultModelsDir
}

// GetDetectionModelPath returns the path to the detection model. With
// useCompact set, the tiny variant is selected.
func GetDetectionModelPath(modelsDir string, useCompact bool) string {
	name := DetectionStandard
	if useCompact {
		name = DetectionCompact
	}
	return filepath.Join(GetModelsDir(modelsDir), name)
}

// GetClassNamesPath returns the path to the class-names file.
func GetClassNamesPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), ClassNamesFile)
}

// GetTaxonomyPath returns the path to the taxonomy definition file.
func GetTaxonomyPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), TaxonomyFile)
}

// GetAnchorsPath returns the path to the anchor-priors file.
func GetAnchorsPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), AnchorsFile)
}

// ValidateModelPath checks whether a model file exists and is a regular file.
func ValidateModelPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("model file not found: %s", path)
		}
		return fmt.Errorf("cannot access model file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path is a directory: %s", path)
	}
	return nil
}
