package bb84sim

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/alan-christopher/bb84sim/bb84sim/bitarray"
)

// maxKeyBits is the widest final key the hash-and-truncate extractor can
// produce, fixed by the digest width. Wider requests are capped.
const maxKeyBits = blake2b.Size * 8

// amplifyKey compresses a reconciled key into a final key of up to bits
// bits, rendered as lowercase hex. The key's canonical '0'/'1' string form is
// digested and the digest truncated to ceil(bits/4) hex digits, each digit
// carrying four key bits. A single hash-and-truncate stands in for universal
// hashing here; it erases partial information an eavesdropper may hold, but
// makes no extractor-strength guarantee.
func amplifyKey(key bitarray.Dense, bits int) (string, error) {
	h, err := blake2b.New512(nil)
	if err != nil {
		return "", fmt.Errorf("building amplification digest: %w", err)
	}
	h.Write([]byte(key.String()))
	digest := hex.EncodeToString(h.Sum(nil))
	nibbles := (bits + 3) / 4
	if nibbles > len(digest) {
		nibbles = len(digest)
	}
	return digest[:nibbles], nil
}
