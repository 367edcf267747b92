package bb84sim

import (
	"github.com/alan-christopher/bb84sim/bb84sim/bitarray"
)

// A reconciler aligns bob's key with alice's using fixed-size block parity:
// when an aligned block pair's parities disagree, the first differing bit in
// bob's block is corrected and the rest of the block is left alone. A block
// containing multiple errors is therefore only partially repaired in a single
// pass; the residual is surfaced by the post-reconciliation check in Run
// rather than hidden by re-scanning here.
type reconciler struct {
	blockSize int
}

// Reconcile returns a corrected copy of bob, aligned block-by-block against
// alice, along with the number of bits corrected. alice is never modified.
// The final block may be shorter than blockSize.
func (rc reconciler) Reconcile(alice, bob bitarray.Dense) (bitarray.Dense, int) {
	fixed := bitarray.NewDense(bob.Data(), bob.Size())
	corrected := 0
	for start := 0; start < alice.Size(); start += rc.blockSize {
		end := min(start+rc.blockSize, alice.Size())
		if blockParity(alice, start, end) == blockParity(fixed, start, end) {
			continue
		}
		// Parities disagree, so at least one bit in the block differs.
		for i := start; i < end; i++ {
			if alice.Get(i) != fixed.Get(i) {
				fixed.Flip(i)
				corrected++
				break
			}
		}
	}
	return fixed, corrected
}

// blockParity XOR-folds the bits of d in [start, end).
func blockParity(d bitarray.Dense, start, end int) bool {
	parity := false
	for i := start; i < end; i++ {
		if d.Get(i) {
			parity = !parity
		}
	}
	return parity
}
