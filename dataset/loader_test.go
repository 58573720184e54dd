package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analytix-ai/analytix-go/config"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

func TestLoadCSV(t *testing.T) {
	cfg := config.Default()

	csv := "name,age,salary\nalice,34,\"52,000\"\nbob,,48000\ncarol,29,51000\n"
	ds, err := Load(strings.NewReader(csv), "people.csv", cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, 3, ds.NumCols())
	assert.Equal(t, []string{"name", "age", "salary"}, ds.Names())

	// The loader keeps everything as text; the empty age cell is null.
	age := ds.Column("age")
	require.NotNil(t, age)
	assert.Equal(t, Text, age.Kind)
	assert.True(t, age.Null[1])
	assert.Equal(t, 1, age.MissingCount())
}

func TestLoadMissingTokens(t *testing.T) {
	cfg := config.Default()

	csv := "a,b\n1,x\nNA,y\nnull,z\nNaN,w\n"
	ds, err := Load(strings.NewReader(csv), "tokens.csv", cfg)
	require.NoError(t, err)

	a := ds.Column("a")
	assert.Equal(t, 3, a.MissingCount())
}

func TestLoadErrors(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name     string
		filename string
		body     string
	}{
		{"empty input", "empty.csv", ""},
		{"header only", "header.csv", "a,b\n"},
		{"unsupported format", "data.parquet", "a,b\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.body), tt.filename, cfg)
			require.Error(t, err)

			var ingest *pkgerr.IngestError
			assert.True(t, pkgerr.As(err, &ingest))
		})
	}
}

func TestLoadSizeLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MaxInputBytes = 10

	_, err := Load(strings.NewReader("a,b\n1,2\n3,4\n"), "big.csv", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size limit")
}

func TestLoadBlankHeaderGetsName(t *testing.T) {
	cfg := config.Default()

	ds, err := Load(strings.NewReader("a,,c\n1,2,3\n"), "blank.csv", cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "column_2", "c"}, ds.Names())
}
