// Package tebd implements time-evolving block decimation for nearest
// neighbor spin chains, with an optional interleaved Clifford gate.
//
// References:
//   - The density-matrix renormalization group in the age of matrix product states, Ulrich Schollwock, Section 7.1
package tebd

import (
	"log"
	"math"
	"math/cmplx"
	"time"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"

	"qxxz"
	"qxxz/mat"
	"qxxz/mps"
	"qxxz/util"
)

// Status is the engine lifecycle state.
type Status int

const (
	Idle Status = iota
	Running
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Measurement is the observation record emitted after every elementary step.
type Measurement struct {
	Step int
	T    float64
	// Sx, Sy, Sz are the per-site Pauli expectation values.
	Sx []float64
	Sy []float64
	Sz []float64
	// Entropy is the entanglement entropy of every bond.
	Entropy []float64
	// TruncErr is the cumulative truncation error norm.
	TruncErr float64
}

// trotterLayer is one sweep of two-site gates: the bonds of one parity,
// evolved by frac*dt.
type trotterLayer struct {
	parity int
	frac   float64
}

// trotterLayers returns the Suzuki-Trotter decomposition of one elementary
// time step. Fourth order is the Forest-Ruth/Suzuki splitting with
// t1 = 1/(4-4^(1/3)), its five second-order blocks merged at the seams.
func trotterLayers(order int) ([]trotterLayer, error) {
	switch order {
	case 1:
		return []trotterLayer{{0, 1}, {1, 1}}, nil
	case 2:
		return []trotterLayer{{0, 0.5}, {1, 1}, {0, 0.5}}, nil
	case 4:
		t1 := 1 / (4 - math.Cbrt(4))
		t3 := 1 - 4*t1
		return []trotterLayer{
			{0, t1 / 2}, {1, t1}, {0, t1}, {1, t1},
			{0, (t1 + t3) / 2}, {1, t3}, {0, (t1 + t3) / 2},
			{1, t1}, {0, t1}, {1, t1}, {0, t1 / 2},
		}, nil
	default:
		return nil, qxxz.ConfigurationError{Msg: errors.Errorf("unsupported Trotter order %d", order).Error()}
	}
}

// Engine evolves a matrix product state in time.
// It exclusively owns the state during a run.
type Engine struct {
	cfg         Config
	model       qxxz.Model
	psi         *mps.State
	logger      *log.Logger
	logThrottle *util.SkipThrottler

	status      Status
	steps       int
	evolvedTime float64
	truncErr    TruncationError
	err         error

	layers   []trotterLayer
	gates    map[float64][]*tensor.Dense
	clifford *tensor.Dense
}

// New constructs an engine for the given state and model.
// The logger is owned by the caller and used read-only; it may be nil.
// Configuration faults are reported before any state is mutated.
func New(psi *mps.State, model qxxz.Model, cfg Config, logger *log.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if model.Chain.BC != qxxz.Open {
		// A finite MPS has no wrap-around bond.
		return nil, qxxz.ConfigurationError{Msg: "TEBD on a finite MPS supports open chains only"}
	}
	if psi.Len() != model.Chain.L {
		return nil, qxxz.ConfigurationError{Msg: errors.Errorf("state has %d sites, model has %d", psi.Len(), model.Chain.L).Error()}
	}

	e := &Engine{cfg: cfg, model: model, psi: psi, logger: logger, status: Idle}
	e.logThrottle = util.NewSkipThrottler(time.Second)

	var err error
	e.layers, err = trotterLayers(cfg.Order)
	if err != nil {
		return nil, err
	}

	// Precompute exp(-i*frac*dt*h) for every bond and distinct Trotter
	// fraction.
	terms := model.BondTerms()
	e.gates = make(map[float64][]*tensor.Dense)
	for _, layer := range e.layers {
		if _, ok := e.gates[layer.frac]; ok {
			continue
		}
		gates := make([]*tensor.Dense, 0, len(terms))
		for _, h := range terms {
			gates = append(gates, expGate(h, layer.frac*cfg.Dt))
		}
		e.gates[layer.frac] = gates
	}

	if cfg.Clifford != nil {
		e.clifford = mps.Gate(cfg.Clifford.Gate)
	}
	return e, nil
}

func (e *Engine) Status() Status       { return e.status }
func (e *Engine) Err() error           { return e.err }
func (e *Engine) Steps() int           { return e.steps }
func (e *Engine) EvolvedTime() float64 { return e.evolvedTime }

// Step performs one elementary time increment dt: every Trotter sub-step
// sweeps its parity's bonds, and every Clifford period the interleaved gate
// is applied with the same truncation parameters.
func (e *Engine) Step() error {
	switch e.status {
	case Completed, Failed:
		return errors.Errorf("step in state %s", e.status)
	}
	e.status = Running

	numBonds := e.psi.Len() - 1
	for _, layer := range e.layers {
		gates := e.gates[layer.frac]
		for i := layer.parity; i < numBonds; i += 2 {
			eps, err := e.psi.ApplyTwoSiteGate(i, gates[i], e.cfg.ChiMax, e.cfg.SvdMin)
			if err != nil {
				return e.fail(i, err)
			}
			e.truncErr.Add(eps)
		}
	}

	e.steps++
	e.evolvedTime = float64(e.steps) * e.cfg.Dt

	if c := e.cfg.Clifford; c != nil && e.steps%c.Period == 0 {
		bond := numBonds / 2
		if c.Bond != nil {
			bond = c.Bond(e.steps, numBonds)
		}
		eps, err := e.psi.ApplyTwoSiteGate(bond, e.clifford, e.cfg.ChiMax, e.cfg.SvdMin)
		if err != nil {
			return e.fail(bond, err)
		}
		e.truncErr.Add(eps)
	}

	return nil
}

// Run evolves the state to the configured evolution time, invoking measure
// after every elementary step. On failure the error is returned and the
// measurements delivered so far remain valid.
func (e *Engine) Run(measure func(Measurement)) error {
	for e.evolvedTime+e.cfg.Dt/2 < e.cfg.EvolTime {
		if err := e.Step(); err != nil {
			return err
		}
		if measure != nil {
			measure(e.Measure())
		}
		if e.logger != nil && e.logThrottle.Ok() {
			e.logger.Printf("step %d t %.4f trunc_err %g", e.steps, e.evolvedTime, e.truncErr.Err())
		}
	}
	e.status = Completed
	if e.logger != nil {
		e.logger.Printf("completed at t %.4f after %d steps", e.evolvedTime, e.steps)
	}
	return nil
}

// Measure records the current observables. The state is not mutated.
func (e *Engine) Measure() Measurement {
	return Measurement{
		Step:     e.steps,
		T:        e.evolvedTime,
		Sx:       realParts(e.psi.ExpectationValue(mat.PauliX)),
		Sy:       realParts(e.psi.ExpectationValue(mat.PauliY)),
		Sz:       realParts(e.psi.ExpectationValue(mat.PauliZ)),
		Entropy:  e.psi.EntanglementEntropy(),
		TruncErr: e.truncErr.Err(),
	}
}

func (e *Engine) fail(bond int, err error) error {
	e.status = Failed
	e.err = NumericalError{Bond: bond, Step: e.steps, Err: err}
	if e.logger != nil {
		e.logger.Printf("%+v", e.err)
	}
	return e.err
}

// expGate exponentiates a real symmetric two-site bond term into the unitary
// exp(-i*t*h).
func expGate(h *mat.COO, t float64) *tensor.Dense {
	vals, vecs := h.EigenSym()
	n := h.Rows()

	u := make([][]complex64, n)
	for a := 0; a < n; a++ {
		u[a] = make([]complex64, n)
		for b := 0; b < n; b++ {
			var v complex128
			for k := 0; k < n; k++ {
				v += complex(vecs.At(a, k), 0) * cmplx.Exp(complex(0, -t*vals[k])) * complex(vecs.At(b, k), 0)
			}
			u[a][b] = complex64(v)
		}
	}
	return mps.Gate(u)
}

func realParts(vals []complex64) []float64 {
	rs := make([]float64, 0, len(vals))
	for _, v := range vals {
		rs = append(rs, float64(real(v)))
	}
	return rs
}
