// Package photon models the quantum channel of the simulator: batches of
// qubit pulses prepared in chosen bases, measured in a receiver's bases, and
// optionally intercepted in flight.
package photon

import (
	"math/rand"

	"github.com/alan-christopher/bb84sim/bb84sim/bitarray"
)

// A Transmission is a batch of qubit pulses in flight: the logical bit values
// and the bases they are encoded in, index-aligned. A basis bit of 0 denotes
// the rectilinear basis and 1 the diagonal basis; only equality of bases ever
// matters.
type Transmission struct {
	Bits  bitarray.Dense
	Bases bitarray.Dense
}

// RandomBits returns n bits drawn uniformly from rng. The same helper serves
// for drawing bit values and for drawing basis choices, since each is uniform
// over a two-element domain.
func RandomBits(n int, rng *rand.Rand) bitarray.Dense {
	buf := make([]byte, bitarray.BytesFor(n))
	rng.Read(buf)
	return bitarray.NewDense(buf, n)
}

// Measure decodes a transmission in the given measurement bases. Where a
// measurement basis agrees with the encoding basis the prepared bit is
// recovered faithfully; where they disagree the outcome is uniformly random
// and independent of every other measurement. The returned sequence has the
// same length as the transmission.
func Measure(tx Transmission, bases bitarray.Dense, rng *rand.Rand) bitarray.Dense {
	mask := RandomBits(tx.Bits.Size(), rng)
	flips := mask.And(tx.Bases.XOr(bases))
	return tx.Bits.XOr(flips)
}

// Intercept applies an intercept-resend attack to a transmission: every
// pulse is measured in a freshly drawn basis, and the measured bit is re-sent
// encoded in that same basis, fully replacing the channel content. Re-encoding
// in the measurement basis rather than a fresh one is a deliberate
// simplification; it pins the error rate induced at basis-matched positions
// to an expected 1/4.
func Intercept(tx Transmission, rng *rand.Rand) Transmission {
	bases := RandomBits(tx.Bits.Size(), rng)
	bits := Measure(tx, bases, rng)
	return Transmission{Bits: bits, Bases: bases}
}

// WithNoise returns a copy of the transmission whose bits are flipped
// wherever mask has a set bit, modeling legitimate channel noise. Mask bits
// past the end of the transmission are ignored.
func (t Transmission) WithNoise(mask bitarray.Dense) Transmission {
	if mask.Size() > t.Bits.Size() {
		mask, _ = mask.Slice(0, t.Bits.Size())
	}
	return Transmission{Bits: t.Bits.XOr(mask), Bases: t.Bases}
}
