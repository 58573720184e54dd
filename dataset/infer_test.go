package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analytix-ai/analytix-go/config"
)

func loadAndInfer(t *testing.T, csv string) *Dataset {
	t.Helper()
	cfg := config.Default()
	ds, err := Load(strings.NewReader(csv), "test.csv", cfg)
	require.NoError(t, err)
	return InferTypes(ds, cfg)
}

func TestInferNumericWithThousandsSeparators(t *testing.T) {
	ds := loadAndInfer(t, "salary\n52,000\n48,500.5\n61,250\n70,100\n55,300\n49,900\n")

	c := ds.Column("salary")
	assert.Equal(t, Numeric, c.Kind)
	assert.InDelta(t, 52000, c.Floats[0], 1e-9)
	assert.InDelta(t, 48500.5, c.Floats[1], 1e-9)
}

func TestInferBoolean(t *testing.T) {
	ds := loadAndInfer(t, "active\nyes\nno\nYes\nNO\ny\nf\n")

	c := ds.Column("active")
	require.Equal(t, Boolean, c.Kind)
	assert.True(t, c.Bools[0])
	assert.False(t, c.Bools[1])
}

func TestInferDateTimeLocksLayout(t *testing.T) {
	ds := loadAndInfer(t, "day\n2024-01-02\n2024-01-03\n2024-01-04\n2024-01-05\n")

	c := ds.Column("day")
	require.Equal(t, DateTime, c.Kind)
	assert.Equal(t, 2024, c.Times[0].Year())
}

func TestInferSmallIntegerSetStaysCategorical(t *testing.T) {
	// Three distinct integer codes across many rows look like category
	// codes, not measurements.
	rows := make([]string, 0, 41)
	rows = append(rows, "grade")
	for i := 0; i < 40; i++ {
		rows = append(rows, []string{"1", "2", "3"}[i%3])
	}
	ds := loadAndInfer(t, strings.Join(rows, "\n")+"\n")

	assert.Equal(t, Categorical, ds.Column("grade").Kind)
}

func TestInferHighCardinalityStringStaysText(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("token\n")
	for i := 0; i < 60; i++ {
		sb.WriteString(strings.Repeat("x", i+1) + "\n")
	}
	ds := loadAndInfer(t, sb.String())

	assert.Equal(t, Text, ds.Column("token").Kind)
}

func TestInferMixedColumnStaysText(t *testing.T) {
	ds := loadAndInfer(t, "v\n1\ntwo\n3\nfour\nfive\nsix\nseven\neight\nnine\nten\neleven\ntwelve\n")

	// Too many distinct values for the cutoff at 12 rows.
	assert.Equal(t, Text, ds.Column("v").Kind)
}

func TestInferTypesIsDeterministic(t *testing.T) {
	csv := "a,b\n1.5,x\n2.5,y\n3.5,x\n4.5,y\n"
	first := loadAndInfer(t, csv)
	second := loadAndInfer(t, csv)

	for _, name := range first.Names() {
		assert.Equal(t, first.Column(name).Kind, second.Column(name).Kind)
	}
}
