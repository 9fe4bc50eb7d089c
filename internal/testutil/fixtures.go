package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ExpectedDetection is one labelled box a fixture image should yield.
type ExpectedDetection struct {
	Label    string  `json:"label"`
	X1       int     `json:"x1"`
	Y1       int     `json:"y1"`
	X2       int     `json:"x2"`
	Y2       int     `json:"y2"`
	MinScore float64 `json:"min_score"`
}

// DetectionFixture pairs a scene image with its expected detections.
type DetectionFixture struct {
	Name      string              `json:"name"`
	ImageFile string              `json:"image_file"`
	Width     int                 `json:"width"`
	Height    int                 `json:"height"`
	Expected  []ExpectedDetection `json:"expected"`
}

// SaveFixture writes a fixture as JSON next to its image.
func SaveFixture(t *testing.T, dir string, fixture DetectionFixture) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o750))

	data, err := json.MarshalIndent(fixture, "", "  ")
	require.NoError(t, err)

	path := filepath.Join(dir, fixture.Name+".json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// LoadFixture reads a fixture JSON file.
func LoadFixture(t *testing.T, path string) DetectionFixture {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // G304: test helper reads caller-chosen path
	require.NoError(t, err)

	var fixture DetectionFixture
	require.NoError(t, json.Unmarshal(data, &fixture))
	return fixture
}

// ValidateFixture checks internal consistency of a fixture.
func ValidateFixture(t *testing.T, fixture DetectionFixture) {
	t.Helper()

	require.NotEmpty(t, fixture.Name)
	require.Positive(t, fixture.Width)
	require.Positive(t, fixture.Height)
	for i, e := range fixture.Expected {
		require.Less(t, e.X1, e.X2, "expected[%d] x order", i)
		require.Less(t, e.Y1, e.Y2, "expected[%d] y order", i)
		require.GreaterOrEqual(t, e.X1, 0, "expected[%d] x1", i)
		require.GreaterOrEqual(t, e.Y1, 0, "expected[%d] y1", i)
		require.LessOrEqual(t, e.X2, fixture.Width, "expected[%d] x2", i)
		require.LessOrEqual(t, e.Y2, fixture.Height, "expected[%d] y2", i)
	}
}
