package artifact

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	Name  string    `json:"name"`
	Terms []float64 `json:"terms"`
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "vec.json")

	in := fixture{Name: "tfidf", Terms: []float64{0.5, 1.25}}
	require.NoError(t, SaveJSON(path, in))

	var out fixture
	require.NoError(t, LoadJSON(path, &out))
	assert.Equal(t, in, out)
}

func TestLoadMissing(t *testing.T) {
	var out fixture
	err := LoadJSON(filepath.Join(t.TempDir(), "absent.json"), &out)
	require.ErrorIs(t, err, ErrMissing)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, SaveJSON(path, "just a string"))

	var out fixture
	err := LoadJSON(path, &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissing)
}
