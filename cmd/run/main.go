// Command run evolves an XXZ chain with TEBD, archives the measurements, and
// plots the magnetization and entanglement trajectories against exact
// diagonalization.
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"qxxz"
	"qxxz/exactdiag"
	"qxxz/mps"
	"qxxz/store"
	"qxxz/tebd"
)

var (
	savingDir = flag.String("d", filepath.Join("runs", "qxxz"), "run directory")

	_ = flag.Int("L", 10, "number of sites")
	_ = flag.Float64("Jxy", -0.1, "XX and YY coupling")
	_ = flag.Float64("Jz", -0.5, "ZZ coupling")
	_ = flag.Float64("hz", 0.7, "Z field")
	_ = flag.String("bc", "open", "boundary condition, open or periodic")
	_ = flag.String("bc_MPS", "finite", "MPS boundary condition")
	_ = flag.Float64("theta", 1.5707963267948966, "initial state polar angle")
	_ = flag.Float64("phi", 0, "initial state azimuthal angle")
	_ = flag.Float64("dt", 0.1, "time step")
	_ = flag.Int("order", 4, "Trotter order, 1, 2 or 4")
	_ = flag.Int("chi_max", 100, "maximum bond dimension")
	_ = flag.Float64("svd_min", 1e-12, "singular value cutoff")
	_ = flag.Float64("evol_time", 20, "total evolution time")
	_ = flag.Int("clifford_step", 50, "apply a CNOT every this many steps, 0 disables")
)

const (
	fnameLog = "run.log"
	fnameDB  = "measurements.db"

	// exactPoints is the number of time points of the reference trajectory.
	exactPoints = 100
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	cfg, err := parseFlags()
	if err != nil {
		return errors.Wrap(err, "")
	}

	runDir := filepath.Join(*savingDir, time.Now().Format("20060102_150405"))
	logDir := filepath.Join(runDir, "log_dir")
	dataDir := filepath.Join(runDir, "data_dir")
	imgDir := filepath.Join(runDir, "img_dir")
	for _, dir := range []string{logDir, dataDir, imgDir} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return errors.Wrap(err, "")
		}
	}

	logF, err := os.Create(filepath.Join(logDir, fnameLog))
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer logF.Close()
	logger := log.New(io.MultiWriter(os.Stderr, logF), "", log.Lmicroseconds|log.Llongfile|log.LstdFlags)

	chain, err := qxxz.NewChain(cfg.L, cfg.BC)
	if err != nil {
		return errors.Wrap(err, "")
	}
	model := qxxz.XXZChain(chain, cfg.Jxy, cfg.Jz, cfg.Hz)

	psi, err := mps.FromProductState(cfg.L, []mps.BlochState{{Theta: cfg.Theta, Phi: cfg.Phi}})
	if err != nil {
		return errors.Wrap(err, "")
	}

	engine, err := tebd.New(psi, model, cfg, logger)
	if err != nil {
		return errors.Wrap(err, "")
	}

	db, err := store.Open(filepath.Join(dataDir, fnameDB))
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	ms := make([]tebd.Measurement, 0)
	var storeErr error
	record := func(m tebd.Measurement) {
		ms = append(ms, m)
		if err := db.Write(m); err != nil && storeErr == nil {
			storeErr = err
		}
	}
	// Initial observables at t=0.
	record(engine.Measure())
	runErr := engine.Run(record)
	if runErr != nil {
		return errors.Wrap(runErr, "")
	}
	if storeErr != nil {
		return errors.Wrap(storeErr, "")
	}
	logger.Printf("status %s, %d measurements, max bond dimension %d", engine.Status(), len(ms), maxBondDim(psi))

	// Reference trajectory by exact diagonalization, when tractable.
	var exact *exactdiag.Magnetization
	if cfg.L <= 14 && cfg.Clifford == nil {
		times := make([]float64, 0, exactPoints)
		for i := 0; i < exactPoints; i++ {
			times = append(times, cfg.EvolTime*float64(i)/float64(exactPoints-1))
		}
		mag, err := exactdiag.Magnetizations(model, cfg.Theta, cfg.Phi, times)
		if err != nil {
			return errors.Wrap(err, "")
		}
		exact = &mag
	}

	if err := plotMagnetizations(filepath.Join(imgDir, "magnetization.png"), ms, exact); err != nil {
		return errors.Wrap(err, "")
	}
	if err := plotEntropy(filepath.Join(imgDir, "entropy.png"), ms); err != nil {
		return errors.Wrap(err, "")
	}
	logger.Printf("wrote %s", runDir)
	return nil
}

// parseFlags collects the physics flags into a parameter map, so that
// tebd.ParseParams performs the validation.
func parseFlags() (tebd.Config, error) {
	params := make(map[string]string)
	flag.VisitAll(func(f *flag.Flag) {
		if f.Name == "d" {
			return
		}
		params[f.Name] = f.Value.String()
	})
	return tebd.ParseParams(params)
}

func maxBondDim(psi *mps.State) int {
	chi := 1
	for i := 0; i < psi.Len(); i++ {
		if d := psi.BondDim(i); d > chi {
			chi = d
		}
	}
	return chi
}

func avg(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
