package matrix

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/CK6170/CPVmini-go/models"
)

// Degree of the calibration polynomial.
const Degree = 2

var (
	ErrTooFewPoints = errors.New("matrix: at least 3 calibration pairs are required")
	ErrDegenerate   = errors.New("matrix: calibration pairs cannot be fitted")
)

// Quadratic is a*x^2 + b*x + c.
type Quadratic struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	// Rank of the scaled design matrix. Below 3 the coefficients are the
	// minimum-norm least-squares solution.
	Rank int `json:"rank"`
}

// Exact reports whether the pairs determined all three coefficients.
func (q Quadratic) Exact() bool { return q.Rank > Degree }

func (q Quadratic) Eval(x float64) float64 {
	return (q.A*x+q.B)*x + q.C
}

// FitQuadratic returns the least-squares quadratic mapping Raw to Calibrated.
//
// The Vandermonde columns are scaled to unit norm before a thin SVD, and singular
// values below n*eps relative to the largest are treated as zero. When fewer than
// three columns survive that cut the rank-truncated solution is returned with Rank
// set accordingly. Non-finite input yields ErrDegenerate.
func FitQuadratic(pairs []models.Pair) (*Quadratic, error) {
	n := len(pairs)
	if n < Degree+1 {
		return nil, ErrTooFewPoints
	}
	cols := Degree + 1

	a := mat.NewDense(n, cols, nil)
	b := mat.NewVecDense(n, nil)
	for i, p := range pairs {
		if math.IsNaN(p.Raw) || math.IsInf(p.Raw, 0) || math.IsNaN(p.Calibrated) || math.IsInf(p.Calibrated, 0) {
			return nil, ErrDegenerate
		}
		// highest power first
		v := 1.0
		for j := cols - 1; j >= 0; j-- {
			a.Set(i, j, v)
			v *= p.Raw
		}
		b.SetVec(i, p.Calibrated)
	}

	scale := make([]float64, cols)
	for j := 0; j < cols; j++ {
		scale[j] = mat.Norm(a.ColView(j), 2)
		if scale[j] == 0 {
			scale[j] = 1
		}
		for i := 0; i < n; i++ {
			a.Set(i, j, a.At(i, j)/scale[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, ErrDegenerate
	}
	rcond := float64(n) * eps
	rank := svd.Rank(rcond)
	if rank == 0 {
		return nil, ErrDegenerate
	}

	var x mat.VecDense
	svd.SolveVecTo(&x, b, rank)

	coef := make([]float64, cols)
	for j := 0; j < cols; j++ {
		coef[j] = x.AtVec(j) / scale[j]
		if math.IsNaN(coef[j]) || math.IsInf(coef[j], 0) {
			return nil, ErrDegenerate
		}
	}
	return &Quadratic{A: coef[0], B: coef[1], C: coef[2], Rank: rank}, nil
}

// eps is the float64 machine epsilon.
var eps = math.Nextafter(1, 2) - 1
