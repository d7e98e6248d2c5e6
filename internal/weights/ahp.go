package weights

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Consistency bands for an AHP consistency ratio.
const (
	ConsistencyAcceptable = "acceptable"
	ConsistencyMarginal   = "marginal"
	ConsistencyPoor       = "poor"
)

// CR cutoffs.
const (
	AcceptableCR = 0.10
	MarginalCR   = 0.20
)

// MaxMatrixSize is the largest matrix the random index table covers.
const MaxMatrixSize = 10

// randomIndex is Saaty's random consistency index by matrix size.
var randomIndex = map[int]float64{
	1: 0, 2: 0, 3: 0.58, 4: 0.90, 5: 1.12,
	6: 1.24, 7: 1.32, 8: 1.41, 9: 1.45, 10: 1.49,
}

// RandomIndex returns RI(n), or 0 when n is outside the table.
func RandomIndex(n int) float64 { return randomIndex[n] }

const epsilon = 1e-9

var (
	ErrDiagonal    = errors.New("diagonal entries are fixed at 1")
	ErrNotSaaty    = errors.New("value must be on the Saaty scale (1-9 or its reciprocal)")
	ErrIndex       = errors.New("matrix index out of range")
	ErrMatrixShape = errors.New("invalid comparison matrix")
)

// Matrix is a reciprocal pairwise-comparison matrix. The zero value is not
// usable; create one with NewMatrix.
type Matrix struct {
	cells [][]float64
}

// NewMatrix returns an n×n identity comparison matrix (all criteria equal).
func NewMatrix(n int) (*Matrix, error) {
	if n < 1 || n > MaxMatrixSize {
		return nil, fmt.Errorf("%w: size %d not in 1-%d", ErrMatrixShape, n, MaxMatrixSize)
	}
	cells := make([][]float64, n)
	for i := range cells {
		cells[i] = make([]float64, n)
		for j := range cells[i] {
			cells[i][j] = 1
		}
	}
	return &Matrix{cells: cells}, nil
}

// NewCriteriaMatrix returns the 5×5 matrix over Criteria.
func NewCriteriaMatrix() *Matrix {
	m, _ := NewMatrix(len(Criteria))
	return m
}

// MatrixFromRows validates and copies a full matrix. Every off-diagonal
// entry must be on the Saaty scale and reciprocal to its mirror.
func MatrixFromRows(rows [][]float64) (*Matrix, error) {
	m, err := NewMatrix(len(rows))
	if err != nil {
		return nil, err
	}
	n := len(rows)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrMatrixShape, i, len(row), n)
		}
	}
	for i := 0; i < n; i++ {
		if math.Abs(rows[i][i]-1) > epsilon {
			return nil, fmt.Errorf("%w: [%d][%d] = %g", ErrDiagonal, i, i, rows[i][i])
		}
		for j := i + 1; j < n; j++ {
			if !OnSaatyScale(rows[i][j]) {
				return nil, fmt.Errorf("%w: [%d][%d] = %g", ErrNotSaaty, i, j, rows[i][j])
			}
			if math.Abs(rows[j][i]*rows[i][j]-1) > 1e-6 {
				return nil, fmt.Errorf("%w: [%d][%d] = %g is not the reciprocal of [%d][%d] = %g",
					ErrMatrixShape, j, i, rows[j][i], i, j, rows[i][j])
			}
		}
	}
	// Entries are kept verbatim so a decoded matrix re-encodes identically.
	for i := range rows {
		copy(m.cells[i], rows[i])
	}
	return m, nil
}

// Size returns n.
func (m *Matrix) Size() int { return len(m.cells) }

// Get returns M[i][j].
func (m *Matrix) Get(i, j int) float64 { return m.cells[i][j] }

// Set writes M[i][j] = v and M[j][i] = 1/v.
func (m *Matrix) Set(i, j int, v float64) error {
	n := m.Size()
	if i < 0 || j < 0 || i >= n || j >= n {
		return fmt.Errorf("%w: (%d,%d) in %d×%d matrix", ErrIndex, i, j, n, n)
	}
	if i == j {
		return ErrDiagonal
	}
	if !OnSaatyScale(v) {
		return fmt.Errorf("%w: %g", ErrNotSaaty, v)
	}
	m.cells[i][j] = v
	m.cells[j][i] = 1 / v
	return nil
}

// Rows returns a copy of the matrix entries.
func (m *Matrix) Rows() [][]float64 {
	out := make([][]float64, len(m.cells))
	for i, row := range m.cells {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Clone returns an independent copy.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{cells: m.Rows()}
}

func (m *Matrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.cells)
}

func (m *Matrix) UnmarshalJSON(data []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := MatrixFromRows(rows)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}

// OnSaatyScale reports whether v is an integer 1-9 or the reciprocal of one.
func OnSaatyScale(v float64) bool {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	x := v
	if x < 1 {
		x = 1 / x
	}
	r := math.Round(x)
	return r >= 1 && r <= 9 && math.Abs(x-r) < 1e-6
}

// AHPResult is the outcome of deriving weights from a comparison matrix.
type AHPResult struct {
	Weights          []float64 `json:"weights"`
	UIWeights        []float64 `json:"uiWeights"`
	LambdaMax        float64   `json:"lambdaMax"`
	ConsistencyIndex float64   `json:"consistencyIndex"`
	ConsistencyRatio float64   `json:"consistencyRatio"`
	Consistency      string    `json:"consistency"`
	Warning          string    `json:"warning,omitempty"`
}

// Derive computes geometric-mean weights and the consistency ratio. Poor
// consistency is reported through Consistency and Warning; weights are
// always returned.
func (m *Matrix) Derive() AHPResult {
	n := m.Size()
	w := make([]float64, n)
	var sum float64
	for i, row := range m.cells {
		product := 1.0
		for _, v := range row {
			product *= v
		}
		w[i] = math.Pow(product, 1/float64(n))
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}

	var lambda float64
	for i, row := range m.cells {
		var weighted float64
		for j, v := range row {
			weighted += v * w[j]
		}
		lambda += weighted / w[i]
	}
	lambda /= float64(n)

	var ci, cr float64
	if n > 1 {
		ci = (lambda - float64(n)) / float64(n-1)
	}
	if ri := RandomIndex(n); ri > 0 {
		cr = ci / ri
	}
	// Rounding noise on a perfectly consistent matrix can make CI slightly negative.
	if math.Abs(ci) < epsilon {
		ci = 0
	}
	if math.Abs(cr) < epsilon {
		cr = 0
	}

	res := AHPResult{
		Weights:          w,
		UIWeights:        scaleToUI(w),
		LambdaMax:        lambda,
		ConsistencyIndex: ci,
		ConsistencyRatio: cr,
	}
	switch {
	case cr <= AcceptableCR:
		res.Consistency = ConsistencyAcceptable
	case cr <= MarginalCR:
		res.Consistency = ConsistencyMarginal
		res.Warning = fmt.Sprintf("Consistency ratio %.3f is marginal; consider revisiting a few comparisons", cr)
	default:
		res.Consistency = ConsistencyPoor
		res.Warning = fmt.Sprintf("Consistency ratio %.3f exceeds %.2f; the comparisons contradict each other", cr, MarginalCR)
	}
	return res
}

// PriorityWeights returns the UI-scale weights of a 5×5 criteria matrix.
func (r AHPResult) PriorityWeights() (PriorityWeights, error) {
	return FromSlice(r.UIWeights)
}

func scaleToUI(w []float64) []float64 {
	top := 0.0
	for _, v := range w {
		top = math.Max(top, v)
	}
	out := make([]float64, len(w))
	if top <= 0 {
		return out
	}
	for i, v := range w {
		out[i] = v / top * MaxUIWeight
	}
	return out
}
