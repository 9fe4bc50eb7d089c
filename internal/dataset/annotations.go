package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/roadwatch-ai/signscan/internal/utils"
)

// Annotation is one ground-truth box for an image.
type Annotation struct {
	File  string
	Label string
	Box   utils.Box
}

// annotation CSV column order: Filename, tag, then corner coordinates. The
// traffic-sign dataset mixes ';' and ',' separators within one file, so both
// are treated as field delimiters.
const annotationColumns = 6

func splitAnnotationRow(line string) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ';' || r == ','
	})
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// LoadAnnotations reads ground-truth boxes from an annotation CSV with
// columns Filename;Annotation tag;Upper left corner X;Upper left corner Y;
// Lower right corner X;Lower right corner Y. A header row is detected by a
// non-numeric third column and skipped. Extra trailing columns are ignored.
func LoadAnnotations(path string) ([]Annotation, error) {
	f, err := os.Open(path) //nolint:gosec // G304: annotation path is user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var annotations []Annotation
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := splitAnnotationRow(line)
		if len(fields) < annotationColumns {
			return nil, fmt.Errorf("annotation file %s line %d: expected %d columns, got %d",
				path, lineNo, annotationColumns, len(fields))
		}
		coords := make([]float64, 4)
		parseOK := true
		for i := range coords {
			v, err := strconv.ParseFloat(fields[2+i], 64)
			if err != nil {
				parseOK = false
				break
			}
			coords[i] = v
		}
		if !parseOK {
			if lineNo == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("annotation file %s line %d: non-numeric coordinates", path, lineNo)
		}
		annotations = append(annotations, Annotation{
			File:  fields[0],
			Label: fields[1],
			Box:   utils.NewBox(coords[0], coords[1], coords[2], coords[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotation file: %w", err)
	}
	return annotations, nil
}

// GroupByFile indexes annotations by their image file.
func GroupByFile(annotations []Annotation) map[string][]Annotation {
	grouped := make(map[string][]Annotation)
	for _, a := range annotations {
		grouped[a.File] = append(grouped[a.File], a)
	}
	return grouped
}
