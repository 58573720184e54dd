package train

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analytix-ai/analytix-go/config"
	"github.com/analytix-ai/analytix-go/core/model"
	"github.com/analytix-ai/analytix-go/dataset"
)

func numCol(name string, vals []float64) *dataset.Column {
	return &dataset.Column{
		Name:   name,
		Kind:   dataset.Numeric,
		Floats: append([]float64(nil), vals...),
		Null:   make([]bool, len(vals)),
	}
}

func TestDetectProblemType(t *testing.T) {
	wide := make([]float64, 50)
	for i := range wide {
		wide[i] = float64(i) * 1.3
	}

	tests := []struct {
		name string
		col  *dataset.Column
		want model.ProblemType
	}{
		{
			name: "binary numeric target",
			col:  numCol("y", []float64{0, 1, 0, 1, 1, 0}),
			want: model.Classification,
		},
		{
			name: "continuous numeric target",
			col:  numCol("y", wide),
			want: model.Regression,
		},
		{
			name: "categorical target",
			col: &dataset.Column{
				Name:    "y",
				Kind:    dataset.Categorical,
				Strings: []string{"yes", "no", "yes"},
				Null:    make([]bool, 3),
			},
			want: model.Classification,
		},
		{
			name: "boolean target",
			col: &dataset.Column{
				Name:  "y",
				Kind:  dataset.Boolean,
				Bools: []bool{true, false, true},
				Null:  make([]bool, 3),
			},
			want: model.Classification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := dataset.New(tt.col)
			require.NoError(t, err)

			got, err := DetectProblemType(ds, "y", config.Default())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectProblemTypeUnknownTarget(t *testing.T) {
	ds, err := dataset.New(numCol("x", []float64{1, 2, 3}))
	require.NoError(t, err)

	_, err = DetectProblemType(ds, "missing", config.Default())
	assert.Error(t, err)
}

func TestDetectProblemTypeIsStable(t *testing.T) {
	vals := []float64{0, 1, 2, 0, 1, 2, 0, 1}
	ds, err := dataset.New(numCol("y", vals))
	require.NoError(t, err)

	first, err := DetectProblemType(ds, "y", config.Default())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := DetectProblemType(ds, "y", config.Default())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
