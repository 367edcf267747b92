// Package bb84sim simulates complete runs of the BB84 quantum key
// distribution protocol in a single process: qubit preparation, an optional
// intercept-resend eavesdropper, measurement, basis sifting, error-rate
// estimation, block-parity reconciliation, and privacy amplification. Each
// run produces a pair of final hex keys together with a narrative trace of
// every stage and decision.
package bb84sim

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/alan-christopher/bb84sim/bb84sim/bitarray"
)

// QBERThreshold is the error-rate bound above which an eavesdropper is
// assumed to be present: past roughly 11%, an intercept-resend attacker's
// information gain exceeds what privacy amplification can remove.
const QBERThreshold = 0.11

// Parameters configures a single simulation run. All fields are required;
// New rejects values that make sequence construction impossible.
type Parameters struct {
	// NumQubits is the number of qubits Alice prepares and sends.
	NumQubits int

	// QBERSamplePercent is the percentage (0-100) of the sifted key
	// consumed to estimate the quantum bit error rate.
	QBERSamplePercent int

	// ReconcileBlockSize is the block length used for parity
	// reconciliation.
	ReconcileBlockSize int

	// FinalKeyBits is the desired final key length in bits.
	FinalKeyBits int

	// Eavesdrop activates the intercept-resend eavesdropper.
	Eavesdrop bool

	// SecureMode enforces eavesdropper detection: a run whose estimated
	// QBER exceeds QBERThreshold is terminated with all key material
	// discarded.
	SecureMode bool
}

// An Options packages together the arguments necessary to construct a new
// Simulation.
type Options struct {
	Params Parameters

	// Rand provides the source of randomness for every random draw in a
	// run. Use a seeded source to make runs reproducible. Must be non-nil.
	Rand *rand.Rand

	// Noise is an optional channel-noise mask: transmitted bits are
	// flipped wherever a mask bit is set, before Bob measures.
	Noise []byte
}

// QBERStats records the outcome of error-rate estimation. Immutable once
// computed.
type QBERStats struct {
	// QBER is the observed error fraction, in [0, 1]. Defined as 0 when
	// SampleSize is 0.
	QBER float64

	// Errors is the number of mismatched sampled positions.
	Errors int

	// SampleSize is the number of sifted-key positions consumed by the
	// estimate.
	SampleSize int
}

// A Result is the complete outcome of a simulation run. Every exit path,
// including the early terminations, yields a Result whose unfilled fields
// hold their zero values.
type Result struct {
	// NumQubits is the number of qubits Alice prepared.
	NumQubits int

	// SiftedLen is the number of positions surviving basis sifting.
	SiftedLen int

	// Stats holds the error-rate estimate, or nil if the run ended before
	// estimation.
	Stats *QBERStats

	// EveDetected reports whether secure mode terminated the run.
	EveDetected bool

	// CorrectedErrors is the number of bits reconciliation corrected.
	CorrectedErrors int

	// AliceKey and BobKey are the final keys as lowercase hex, each digit
	// carrying four key bits. They are identical unless reconciliation
	// left residual errors, and empty on the early-termination paths.
	AliceKey string
	BobKey   string

	// Trace is the ordered narrative log of the run.
	Trace []string
}

// A Simulation executes BB84 runs for one fixed configuration.
type Simulation struct {
	params Parameters
	rand   *rand.Rand
	noise  bitarray.Dense

	// Hooks for substituting fixed sequences in tests.
	bitsFunc       func() bitarray.Dense
	aliceBasesFunc func() bitarray.Dense
	bobBasesFunc   func() bitarray.Dense
}

// New returns a new Simulation, configured in accordance with opts, or an
// error if the options are nonsensical.
func New(opts Options) (*Simulation, error) {
	if opts.Rand == nil {
		return nil, errors.New("must provide Rand")
	}
	p := opts.Params
	if p.NumQubits <= 0 {
		return nil, fmt.Errorf("NumQubits must be positive, got %d", p.NumQubits)
	}
	if p.QBERSamplePercent < 0 || p.QBERSamplePercent > 100 {
		return nil, fmt.Errorf("QBERSamplePercent must be in [0, 100], got %d", p.QBERSamplePercent)
	}
	if p.ReconcileBlockSize <= 0 {
		return nil, fmt.Errorf("ReconcileBlockSize must be positive, got %d", p.ReconcileBlockSize)
	}
	if p.FinalKeyBits <= 0 {
		return nil, fmt.Errorf("FinalKeyBits must be positive, got %d", p.FinalKeyBits)
	}
	return &Simulation{
		params: p,
		rand:   opts.Rand,
		noise:  bitarray.NewDense(opts.Noise, -1),
	}, nil
}
