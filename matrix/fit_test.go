package matrix

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/CK6170/CPVmini-go/models"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Abs(b))
}

func TestFitQuadraticExact(t *testing.T) {
	tests := []struct {
		name  string
		pairs []models.Pair
		want  Quadratic
	}{
		{
			name:  "three points",
			pairs: []models.Pair{{Raw: 0, Calibrated: 1}, {Raw: 1, Calibrated: 3}, {Raw: 2, Calibrated: 7}},
			want:  Quadratic{A: 1, B: 1, C: 1},
		},
		{
			name:  "pure square",
			pairs: []models.Pair{{Raw: -1, Calibrated: 1}, {Raw: 0, Calibrated: 0}, {Raw: 3, Calibrated: 9}, {Raw: 5, Calibrated: 25}},
			want:  Quadratic{A: 1},
		},
		{
			name:  "straight line",
			pairs: []models.Pair{{Raw: 10, Calibrated: 21}, {Raw: 20, Calibrated: 41}, {Raw: 30, Calibrated: 61}},
			want:  Quadratic{B: 2, C: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := FitQuadratic(tt.pairs)
			if err != nil {
				t.Fatalf("FitQuadratic: %v", err)
			}
			if !near(q.A, tt.want.A, 1e-9) || !near(q.B, tt.want.B, 1e-9) || !near(q.C, tt.want.C, 1e-9) {
				t.Fatalf("got %+v, want %+v", *q, tt.want)
			}
			if !q.Exact() {
				t.Fatalf("rank = %d, want 3", q.Rank)
			}
		})
	}
}

func TestFitQuadraticLeastSquares(t *testing.T) {
	pairs := []models.Pair{
		{Raw: 0, Calibrated: 0.1},
		{Raw: 1, Calibrated: 0.98},
		{Raw: 2, Calibrated: 2.03},
		{Raw: 4, Calibrated: 4.15},
		{Raw: 8, Calibrated: 8.62},
		{Raw: 12, Calibrated: 13.44},
	}
	q, err := FitQuadratic(pairs)
	if err != nil {
		t.Fatalf("FitQuadratic: %v", err)
	}

	// Normal equations (A^T A) x = A^T b give the same minimiser for a well conditioned set.
	n := len(pairs)
	a := mat.NewDense(n, 3, nil)
	b := mat.NewVecDense(n, nil)
	for i, p := range pairs {
		a.Set(i, 0, p.Raw*p.Raw)
		a.Set(i, 1, p.Raw)
		a.Set(i, 2, 1)
		b.SetVec(i, p.Calibrated)
	}
	var ata mat.Dense
	ata.Mul(a.T(), a)
	var atb mat.VecDense
	atb.MulVec(a.T(), b)
	var x mat.VecDense
	if err := x.SolveVec(&ata, &atb); err != nil {
		t.Fatalf("normal equations: %v", err)
	}
	if !near(q.A, x.AtVec(0), 1e-6) || !near(q.B, x.AtVec(1), 1e-6) || !near(q.C, x.AtVec(2), 1e-6) {
		t.Fatalf("got %+v, want [%g %g %g]", *q, x.AtVec(0), x.AtVec(1), x.AtVec(2))
	}
}

func TestFitQuadraticErrors(t *testing.T) {
	tests := []struct {
		name  string
		pairs []models.Pair
		want  error
	}{
		{"empty", nil, ErrTooFewPoints},
		{"two points", []models.Pair{{Raw: 1, Calibrated: 1}, {Raw: 2, Calibrated: 2}}, ErrTooFewPoints},
		{"nan", []models.Pair{{Raw: 1, Calibrated: 1}, {Raw: math.NaN(), Calibrated: 2}, {Raw: 3, Calibrated: 3}}, ErrDegenerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitQuadratic(tt.pairs)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

// Every least-squares solution agrees at the sampled raw values, so Eval there is
// fixed even though the coefficients are not.
func TestFitQuadraticRankDeficient(t *testing.T) {
	tests := []struct {
		name  string
		pairs []models.Pair
		at    []float64
		want  []float64
	}{
		{
			name:  "duplicated raw",
			pairs: []models.Pair{{Raw: 1, Calibrated: 1}, {Raw: 1, Calibrated: 3}, {Raw: 2, Calibrated: 5}},
			at:    []float64{1, 2},
			want:  []float64{2, 5},
		},
		{
			name:  "all zero raw",
			pairs: []models.Pair{{Raw: 0, Calibrated: 1}, {Raw: 0, Calibrated: 2}, {Raw: 0, Calibrated: 3}},
			at:    []float64{0},
			want:  []float64{2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := FitQuadratic(tt.pairs)
			if err != nil {
				t.Fatalf("FitQuadratic: %v", err)
			}
			if q.Rank < 1 || q.Exact() {
				t.Fatalf("rank = %d, want 1 or 2", q.Rank)
			}
			for i, x := range tt.at {
				if got := q.Eval(x); !near(got, tt.want[i], 1e-9) {
					t.Fatalf("Eval(%g) = %g, want %g", x, got, tt.want[i])
				}
			}
		})
	}
}

func TestQuadraticEval(t *testing.T) {
	q := Quadratic{A: 1, B: 0, C: 0}
	if got := q.Eval(12.5); got != 156.25 {
		t.Fatalf("got %v, want 156.25", got)
	}
	q = Quadratic{A: 2, B: -3, C: 4}
	if got := q.Eval(3); got != 13 {
		t.Fatalf("got %v, want 13", got)
	}
}
