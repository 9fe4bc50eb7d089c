// Package dataset loads the companion files of a trained model (class names,
// anchor priors) and annotated evaluation data in the traffic-sign dataset's
// CSV layout.
package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/roadwatch-ai/signscan/internal/decode"
)

// LoadClassNames reads one class name per line, in class-id order. Blank
// lines are skipped; surrounding whitespace is trimmed.
func LoadClassNames(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: class names path is user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open class names file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read class names file: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("class names file %s is empty", path)
	}
	return names, nil
}

// LoadAnchors reads anchor priors, one "width,height" pair per line in
// grid-cell units. Lines starting with # are comments.
func LoadAnchors(path string) ([]decode.Anchor, error) {
	f, err := os.Open(path) //nolint:gosec // G304: anchors path is user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open anchors file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var anchors []decode.Anchor
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("anchors file %s line %d: expected width,height", path, lineNo)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("anchors file %s line %d: %w", path, lineNo, err)
		}
		h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("anchors file %s line %d: %w", path, lineNo, err)
		}
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("anchors file %s line %d: non-positive anchor %gx%g", path, lineNo, w, h)
		}
		anchors = append(anchors, decode.Anchor{Width: w, Height: h})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read anchors file: %w", err)
	}
	if len(anchors) == 0 {
		return nil, fmt.Errorf("anchors file %s holds no anchors", path)
	}
	return anchors, nil
}

// LoadImageList reads image paths from a CSV list, one path in the first
// column per row. A header row whose first cell does not resolve to an
// existing path convention is kept; filtering against the filesystem is the
// caller's concern.
func LoadImageList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: list path is user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open image list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		first := strings.TrimSpace(strings.Split(line, ",")[0])
		if first == "" || strings.EqualFold(first, "filename") {
			continue
		}
		paths = append(paths, first)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image list: %w", err)
	}
	return paths, nil
}
