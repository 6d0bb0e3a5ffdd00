package tebd

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/pkg/errors"

	"qxxz"
)

// Clifford is the policy for the interleaved two-qubit Clifford gate: which
// gate, how often, and at which bond.
type Clifford struct {
	// Gate is a 4x4 unitary.
	Gate [][]complex64
	// Period is the injection period in elementary steps.
	Period int
	// Bond selects the target bond given the current step and the number of
	// bonds. If nil, the middle bond is used.
	Bond func(step, numBonds int) int
}

// CNOT returns the controlled-NOT gate, with the first site as control.
func CNOT() [][]complex64 {
	return [][]complex64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
	}
}

// Config holds the physical and algorithmic parameters of a run.
// It is consumed read-only by model and engine construction.
type Config struct {
	L   int
	Jxy float64
	Jz  float64
	Hz  float64
	BC  qxxz.BoundaryCondition
	// BCMPS is the boundary condition of the MPS; only "finite" is supported.
	BCMPS string

	// Theta, Phi are the Bloch angles of the initial product state.
	Theta float64
	Phi   float64

	Dt       float64
	Order    int
	ChiMax   int
	SvdMin   float64
	EvolTime float64

	Clifford *Clifford
}

// NewConfig returns the default configuration.
func NewConfig() Config {
	return Config{
		L:        10,
		Jxy:      -0.1,
		Jz:       -0.5,
		Hz:       0.7,
		BC:       qxxz.Open,
		BCMPS:    "finite",
		Theta:    math.Pi / 2,
		Phi:      0,
		Dt:       0.1,
		Order:    4,
		ChiMax:   100,
		SvdMin:   1e-12,
		EvolTime: 20,
	}
}

// Validate checks the configuration before any state is mutated.
func (c Config) Validate() error {
	if c.L < 2 {
		return qxxz.ConfigurationError{Msg: fmt.Sprintf("L %d < 2", c.L)}
	}
	switch c.BC {
	case qxxz.Open, qxxz.Periodic:
	default:
		return qxxz.ConfigurationError{Msg: fmt.Sprintf("unknown boundary condition %q", c.BC)}
	}
	if c.BCMPS != "finite" {
		return qxxz.ConfigurationError{Msg: fmt.Sprintf("bc_MPS %q is not supported", c.BCMPS)}
	}
	if !(c.Dt > 0) {
		return qxxz.ConfigurationError{Msg: fmt.Sprintf("dt %f <= 0", c.Dt)}
	}
	switch c.Order {
	case 1, 2, 4:
	default:
		return qxxz.ConfigurationError{Msg: fmt.Sprintf("unsupported Trotter order %d", c.Order)}
	}
	if c.ChiMax < 1 {
		return qxxz.ConfigurationError{Msg: fmt.Sprintf("chi_max %d < 1", c.ChiMax)}
	}
	if c.SvdMin < 0 {
		return qxxz.ConfigurationError{Msg: fmt.Sprintf("svd_min %g < 0", c.SvdMin)}
	}
	if c.EvolTime < 0 {
		return qxxz.ConfigurationError{Msg: fmt.Sprintf("evol_time %f < 0", c.EvolTime)}
	}
	if c.Clifford != nil {
		if c.Clifford.Period < 1 {
			return qxxz.ConfigurationError{Msg: fmt.Sprintf("clifford_step %d < 1", c.Clifford.Period)}
		}
		g := c.Clifford.Gate
		if len(g) != 4 {
			return qxxz.ConfigurationError{Msg: fmt.Sprintf("clifford gate has %d rows", len(g))}
		}
		for _, row := range g {
			if len(row) != 4 {
				return qxxz.ConfigurationError{Msg: fmt.Sprintf("clifford gate has %d columns", len(row))}
			}
		}
	}
	return nil
}

// ParseParams builds a Config from string parameters, starting from the
// defaults of NewConfig. Keys that do not name a configuration field are
// rejected, which catches typos in caller-supplied parameter sets.
func ParseParams(params map[string]string) (Config, error) {
	c := NewConfig()

	unknown := make([]string, 0)
	var cliffordStep int
	for k, v := range params {
		var err error
		switch k {
		case "L":
			c.L, err = strconv.Atoi(v)
		case "Jxy":
			c.Jxy, err = strconv.ParseFloat(v, 64)
		case "Jz":
			c.Jz, err = strconv.ParseFloat(v, 64)
		case "hz":
			c.Hz, err = strconv.ParseFloat(v, 64)
		case "bc":
			c.BC = qxxz.BoundaryCondition(v)
		case "bc_MPS":
			c.BCMPS = v
		case "theta":
			c.Theta, err = strconv.ParseFloat(v, 64)
		case "phi":
			c.Phi, err = strconv.ParseFloat(v, 64)
		case "dt":
			c.Dt, err = strconv.ParseFloat(v, 64)
		case "order":
			c.Order, err = strconv.Atoi(v)
		case "chi_max":
			c.ChiMax, err = strconv.Atoi(v)
		case "svd_min":
			c.SvdMin, err = strconv.ParseFloat(v, 64)
		case "evol_time":
			c.EvolTime, err = strconv.ParseFloat(v, 64)
		case "clifford_step":
			cliffordStep, err = strconv.Atoi(v)
		default:
			unknown = append(unknown, k)
		}
		if err != nil {
			return Config{}, errors.Wrap(err, fmt.Sprintf("%s=%s", k, v))
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return Config{}, qxxz.ConfigurationError{Msg: fmt.Sprintf("unknown configuration keys %v", unknown)}
	}

	if cliffordStep > 0 {
		c.Clifford = &Clifford{Gate: CNOT(), Period: cliffordStep}
	}
	return c, nil
}
