// bb84sim runs BB84 quantum key distribution simulations. With a single
// trial it prints the full narrative trace followed by the run's results;
// with more it runs independent simulations off one seeded PRNG and prints
// aggregate statistics, e.g. for checking that an intercept-resend
// eavesdropper drives the mean QBER toward 0.25.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	flag "github.com/spf13/pflag"
	"gonum.org/v1/gonum/stat"

	"github.com/alan-christopher/bb84sim/bb84sim"
	"github.com/alan-christopher/bb84sim/bb84sim/bitarray"
)

var (
	qubits    = flag.Int("qubits", 1024, "The number of qubits alice prepares per run.")
	samplePct = flag.Int("sample-pct", 25, "The percentage of the sifted key consumed for QBER estimation.")
	blockSize = flag.Int("block-size", 8, "The block length for parity reconciliation.")
	keyBits   = flag.Int("key-bits", 128, "The desired final key length in bits.")
	eve       = flag.Bool("eve", false, "Enable the intercept-resend eavesdropper.")
	secure    = flag.Bool("secure", false, "Enforce eavesdropper detection at the QBER security bound.")
	noisePct  = flag.Float64("noise-pct", 0, "The fraction of transmitted bits flipped by channel noise.")
	seed      = flag.Int64("seed", 0, "The PRNG seed. 0 seeds from the clock.")
	trials    = flag.Int("trials", 1, "The number of independent runs to aggregate.")
)

func main() {
	flag.Parse()
	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))
	params := bb84sim.Parameters{
		NumQubits:          *qubits,
		QBERSamplePercent:  *samplePct,
		ReconcileBlockSize: *blockSize,
		FinalKeyBits:       *keyBits,
		Eavesdrop:          *eve,
		SecureMode:         *secure,
	}

	if *trials <= 1 {
		printRun(runOnce(params, rng))
		return
	}
	printAggregate(params, rng)
}

func runOnce(params bb84sim.Parameters, rng *rand.Rand) *bb84sim.Result {
	sim, err := bb84sim.New(bb84sim.Options{
		Params: params,
		Rand:   rng,
		Noise:  noiseMask(params.NumQubits, *noisePct, rng),
	})
	if err != nil {
		log.Fatalf("Building simulation: %v", err)
	}
	res, err := sim.Run()
	if err != nil {
		log.Fatalf("Running simulation: %v", err)
	}
	return res
}

func printRun(res *bb84sim.Result) {
	for _, line := range res.Trace {
		fmt.Println(line)
	}
	fmt.Println()
	fmt.Printf("qubits sent:      %d\n", res.NumQubits)
	fmt.Printf("sifted key bits:  %d\n", res.SiftedLen)
	if res.Stats != nil {
		fmt.Printf("qber:             %.4f (%d/%d)\n", res.Stats.QBER, res.Stats.Errors, res.Stats.SampleSize)
	}
	fmt.Printf("eve detected:     %v\n", res.EveDetected)
	fmt.Printf("corrected errors: %d\n", res.CorrectedErrors)
	fmt.Printf("alice key:        %s\n", res.AliceKey)
	fmt.Printf("bob key:          %s\n", res.BobKey)
}

func printAggregate(params bb84sim.Parameters, rng *rand.Rand) {
	var qbers, sifted, corrected []float64
	agreements, detections := 0, 0
	for i := 0; i < *trials; i++ {
		res := runOnce(params, rng)
		if res.Stats != nil {
			qbers = append(qbers, res.Stats.QBER)
		}
		sifted = append(sifted, float64(res.SiftedLen))
		corrected = append(corrected, float64(res.CorrectedErrors))
		if res.AliceKey != "" && res.AliceKey == res.BobKey {
			agreements++
		}
		if res.EveDetected {
			detections++
		}
	}
	fmt.Printf("trials:           %d\n", *trials)
	fmt.Printf("mean qber:        %.4f (stddev %.4f)\n", stat.Mean(qbers, nil), stat.StdDev(qbers, nil))
	fmt.Printf("mean sifted bits: %.1f (stddev %.1f)\n", stat.Mean(sifted, nil), stat.StdDev(sifted, nil))
	fmt.Printf("mean corrections: %.2f\n", stat.Mean(corrected, nil))
	fmt.Printf("key agreement:    %d/%d\n", agreements, *trials)
	fmt.Printf("eve detections:   %d/%d\n", detections, *trials)
}

// noiseMask builds a mask flipping a frac fraction of n transmitted bits,
// scattered uniformly.
func noiseMask(n int, frac float64, rng *rand.Rand) []byte {
	if frac <= 0 {
		return nil
	}
	mask := bitarray.NewDense(nil, n)
	for i := 0; i < int(frac*float64(n)) && i < n; i++ {
		mask.Flip(i)
	}
	mask.Shuffle(rng)
	return mask.Data()
}
