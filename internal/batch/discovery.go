package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roadwatch-ai/signscan/internal/dataset"
	"github.com/roadwatch-ai/signscan/internal/utils"
)

// discoverImageFiles finds all image files matching the given patterns.
// Arguments may be image files, directories, or CSV lists of image paths
// (one path in the first column per row, resolved relative to the list
// file's directory).
func discoverImageFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var imageFiles []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		switch {
		case info.IsDir():
			files, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			imageFiles = append(imageFiles, files...)
		case isImageList(arg):
			files, err := discoverFromImageList(arg, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			imageFiles = append(imageFiles, files...)
		case shouldIncludeFile(arg, includePatterns, excludePatterns):
			imageFiles = append(imageFiles, arg)
		}
	}

	sort.Strings(imageFiles)
	return imageFiles, nil
}

// isImageList reports whether the path looks like a CSV image-path list.
func isImageList(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// discoverFromImageList expands a CSV list of image paths. Relative entries
// resolve against the list file's directory.
func discoverFromImageList(listPath string, includePatterns, excludePatterns []string) ([]string, error) {
	entries, err := dataset.LoadImageList(listPath)
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Dir(listPath)
	var files []string
	for _, entry := range entries {
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(baseDir, entry)
		}
		if shouldIncludeFile(entry, includePatterns, excludePatterns) {
			files = append(files, entry)
		}
	}
	return files, nil
}

// discoverInDirectory recursively discovers image files in a directory.
func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldIncludeFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}

		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

// shouldIncludeFile determines if a file should be included based on the
// supported image formats and include/exclude patterns.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if !utils.IsSupportedImage(path) {
		return false
	}

	if matchesAnyPattern(path, excludePatterns) {
		return false
	}

	// No include patterns means include everything not excluded.
	if len(includePatterns) == 0 {
		return true
	}

	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern checks if a file's base name matches any of the given patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
