package tebd

import (
	"fmt"
	"math"
)

// NumericalError is a numerical failure during evolution, fatal for the
// current run. The measurement history up to the failing step is retained.
type NumericalError struct {
	Bond int
	Step int
	Err  error
}

func (e NumericalError) Error() string {
	return fmt.Sprintf("numerical failure at bond %d, step %d: %v", e.Bond, e.Step, e.Err)
}

func (e NumericalError) Unwrap() error { return e.Err }

// TruncationError accumulates the squared discarded weights of every
// truncation in a run. It is additive bookkeeping only; the cutoff decisions
// are made in mps.ApplyTwoSiteGate.
type TruncationError struct {
	sum float64
}

// Add accumulates the squared discarded weight of one truncation.
// The accumulator is monotonically non-decreasing.
func (t *TruncationError) Add(eps2 float64) {
	if eps2 > 0 {
		t.sum += eps2
	}
}

// Eps returns the accumulated squared discarded weight.
func (t *TruncationError) Eps() float64 { return t.sum }

// Err returns the cumulative decomposition error norm, sqrt of the
// accumulated squared discarded weight.
func (t *TruncationError) Err() float64 { return math.Sqrt(t.sum) }
