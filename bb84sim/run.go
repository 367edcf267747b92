package bb84sim

import (
	"fmt"

	"github.com/alan-christopher/bb84sim/bb84sim/bitarray"
	"github.com/alan-christopher/bb84sim/bb84sim/photon"
)

// A finishReason tags the terminal state a run ended in.
type finishReason int

const (
	finished finishReason = iota
	emptySift
	eveDetected
	emptyKey
)

// A runState accumulates the fields of a Result as the pipeline advances, so
// that every terminal state converges on the same result constructor.
type runState struct {
	sim       *Simulation
	trace     []string
	siftedLen int
	stats     *QBERStats
	corrected int
	aliceKey  string
	bobKey    string
}

// Run executes one complete BB84 simulation. Protocol dead ends — no
// matching bases, eavesdropper detected, no key material left after
// sampling — are reported through the Result, not as errors; Run fails only
// if the amplification digest cannot be computed.
func (s *Simulation) Run() (*Result, error) {
	r := &runState{sim: s}

	aliceBits := s.draw(s.bitsFunc)
	aliceBases := s.draw(s.aliceBasesFunc)
	r.logf("alice prepared %d qubits, each a random bit encoded in a random basis", s.params.NumQubits)

	tx := photon.Transmission{Bits: aliceBits, Bases: aliceBases}
	if s.params.Eavesdrop {
		tx = photon.Intercept(tx, s.rand)
		r.logf("eve intercepted the channel: measured all %d pulses in her own bases and re-sent her results", s.params.NumQubits)
	}
	if s.noise.Size() > 0 {
		tx = tx.WithNoise(s.noise)
		r.logf("channel noise flipped %d transmitted bits", s.noise.CountOnes())
	}

	bobBases := s.draw(s.bobBasesFunc)
	bobBits := photon.Measure(tx, bobBases, s.rand)
	r.logf("bob measured all %d pulses in independently chosen bases", s.params.NumQubits)

	siftedAlice, siftedBob := siftKeys(aliceBits, aliceBases, bobBits, bobBases)
	r.siftedLen = siftedAlice.Size()
	r.logf("sifting kept %d of %d positions where alice's and bob's bases agreed", r.siftedLen, s.params.NumQubits)
	if r.siftedLen == 0 {
		r.logf("no positions with matching bases: discarding the run")
		return r.result(emptySift), nil
	}

	keepAlice, keepBob, err := r.estimateQBER(siftedAlice, siftedBob)
	if err != nil {
		return nil, err
	}
	if s.params.SecureMode && r.stats.QBER > QBERThreshold {
		r.logf("qber %.4f exceeds the %.2f security bound: eavesdropper detected, all key material discarded", r.stats.QBER, QBERThreshold)
		return r.result(eveDetected), nil
	}

	rec := reconciler{blockSize: s.params.ReconcileBlockSize}
	bobFixed, corrected := rec.Reconcile(keepAlice, keepBob)
	r.corrected = corrected
	r.logf("reconciliation corrected %d errors across %d blocks of %d bits",
		corrected, blocksIn(keepAlice.Size(), s.params.ReconcileBlockSize), s.params.ReconcileBlockSize)
	if residual := keepAlice.XOr(bobFixed).CountOnes(); residual > 0 {
		r.logf("warning: %d mismatches remain after reconciliation; the final keys will differ", residual)
	}

	if keepAlice.Size() == 0 {
		r.logf("no key material remains after error estimation: nothing to amplify")
		return r.result(emptyKey), nil
	}

	if r.aliceKey, err = amplifyKey(keepAlice, s.params.FinalKeyBits); err != nil {
		return nil, fmt.Errorf("amplifying alice's key: %w", err)
	}
	if r.bobKey, err = amplifyKey(bobFixed, s.params.FinalKeyBits); err != nil {
		return nil, fmt.Errorf("amplifying bob's key: %w", err)
	}
	if s.params.FinalKeyBits > maxKeyBits {
		r.logf("requested key length %d exceeds the %d-bit digest: keys capped", s.params.FinalKeyBits, maxKeyBits)
	}
	if r.aliceKey == r.bobKey {
		r.logf("privacy amplification produced matching %d-digit hex keys", len(r.aliceKey))
	} else {
		r.logf("privacy amplification produced diverging keys: residual reconciliation errors survive hashing")
	}
	return r.result(finished), nil
}

// draw returns the hook's sequence when one is installed, and NumQubits
// fresh random bits otherwise.
func (s *Simulation) draw(hook func() bitarray.Dense) bitarray.Dense {
	if hook != nil {
		return hook()
	}
	return photon.RandomBits(s.params.NumQubits, s.rand)
}

// siftKeys keeps only the positions where the two declared basis sequences
// agree. Sifting is a public post-transmission step: it always compares
// alice's and bob's declared bases, never an eavesdropper's.
func siftKeys(aliceBits, aliceBases, bobBits, bobBases bitarray.Dense) (bitarray.Dense, bitarray.Dense) {
	mask := aliceBases.XNor(bobBases)
	return aliceBits.Select(mask), bobBits.Select(mask)
}

// estimateQBER compares the first ceil(siftedLen * percent / 100) positions
// of the sifted keys, records the error rate, and returns the unsampled
// remainders. The sampled prefix is consumed: reconciliation never sees it.
func (r *runState) estimateQBER(siftedAlice, siftedBob bitarray.Dense) (keepAlice, keepBob bitarray.Dense, err error) {
	n := siftedAlice.Size()
	sampleCount := (n*r.sim.params.QBERSamplePercent + 99) / 100
	if sampleCount > n {
		sampleCount = n
	}
	sampleAlice, err := siftedAlice.Slice(0, sampleCount)
	if err != nil {
		return bitarray.Empty(), bitarray.Empty(), fmt.Errorf("sampling alice's sifted key: %w", err)
	}
	sampleBob, err := siftedBob.Slice(0, sampleCount)
	if err != nil {
		return bitarray.Empty(), bitarray.Empty(), fmt.Errorf("sampling bob's sifted key: %w", err)
	}
	mismatches := sampleAlice.XOr(sampleBob).CountOnes()
	qber := 0.0
	if sampleCount > 0 {
		qber = float64(mismatches) / float64(sampleCount)
	}
	r.stats = &QBERStats{QBER: qber, Errors: mismatches, SampleSize: sampleCount}
	r.logf("qber estimate: %d mismatches in %d sampled bits (%.4f); sampled bits discarded", mismatches, sampleCount, qber)

	switch {
	case r.sim.params.SecureMode && qber > QBERThreshold:
		// Detection is decided by the caller, which terminates the run.
	case r.sim.params.Eavesdrop && !r.sim.params.SecureMode && qber > QBERThreshold/2:
		r.logf("warning: qber %.4f is elevated, consistent with eavesdropping on the channel", qber)
	case !r.sim.params.Eavesdrop && qber > 0:
		r.logf("note: qber %.4f attributed to channel noise", qber)
	}

	if keepAlice, err = siftedAlice.Slice(sampleCount, n); err != nil {
		return bitarray.Empty(), bitarray.Empty(), fmt.Errorf("splitting alice's sifted key: %w", err)
	}
	if keepBob, err = siftedBob.Slice(sampleCount, n); err != nil {
		return bitarray.Empty(), bitarray.Empty(), fmt.Errorf("splitting bob's sifted key: %w", err)
	}
	return keepAlice, keepBob, nil
}

func (r *runState) logf(format string, args ...interface{}) {
	r.trace = append(r.trace, fmt.Sprintf(format, args...))
}

// result assembles the Result for any terminal state from whatever the run
// computed so far.
func (r *runState) result(reason finishReason) *Result {
	return &Result{
		NumQubits:       r.sim.params.NumQubits,
		SiftedLen:       r.siftedLen,
		Stats:           r.stats,
		EveDetected:     reason == eveDetected,
		CorrectedErrors: r.corrected,
		AliceKey:        r.aliceKey,
		BobKey:          r.bobKey,
		Trace:           r.trace,
	}
}

func blocksIn(n, blockSize int) int {
	return (n + blockSize - 1) / blockSize
}
