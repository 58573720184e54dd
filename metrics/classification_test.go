package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "all correct",
			yTrue: mat.NewVecDense(4, []float64{0, 1, 1, 0}),
			yPred: mat.NewVecDense(4, []float64{0, 1, 1, 0}),
			want:  1,
		},
		{
			name:  "half correct",
			yTrue: mat.NewVecDense(4, []float64{0, 1, 1, 0}),
			yPred: mat.NewVecDense(4, []float64{0, 1, 0, 1}),
			want:  0.5,
		},
		{
			name:  "none correct",
			yTrue: mat.NewVecDense(2, []float64{0, 1}),
			yPred: mat.NewVecDense(2, []float64{1, 0}),
			want:  0,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{0, 1, 0}),
			yPred:   mat.NewVecDense(2, []float64{0, 1}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccuracyStaysInUnitRange(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 1, 2, 0, 1, 2})
	yPred := mat.NewVecDense(6, []float64{0, 2, 2, 1, 1, 0})

	got, err := Accuracy(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if got < 0 || got > 1 {
		t.Errorf("Accuracy() = %v, want within [0, 1]", got)
	}
}

func TestPrecisionRecallF1Perfect(t *testing.T) {
	yTrue := mat.NewVecDense(6, []float64{0, 1, 2, 0, 1, 2})
	yPred := mat.NewVecDense(6, []float64{0, 1, 2, 0, 1, 2})

	p, r, f1, err := PrecisionRecallF1(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	for name, v := range map[string]float64{"precision": p, "recall": r, "f1": f1} {
		if math.Abs(v-1) > 1e-12 {
			t.Errorf("%s = %v, want 1", name, v)
		}
	}
}

func TestPrecisionRecallF1HandlesAbsentPredictions(t *testing.T) {
	// Class 1 is never predicted; precision for it is zero, not an error.
	yTrue := mat.NewVecDense(4, []float64{0, 1, 0, 1})
	yPred := mat.NewVecDense(4, []float64{0, 0, 0, 0})

	p, r, f1, err := PrecisionRecallF1(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	for name, v := range map[string]float64{"precision": p, "recall": r, "f1": f1} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v, want within [0, 1]", name, v)
		}
	}
}

func TestMajorityBaseline(t *testing.T) {
	yTrue := mat.NewVecDense(5, []float64{1, 1, 1, 0, 0})

	got, err := MajorityBaseline(yTrue)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.6) > 1e-12 {
		t.Errorf("MajorityBaseline() = %v, want 0.6", got)
	}
}
