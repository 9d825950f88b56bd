// Package scanstats computes optional operator-facing diagnostics over a
// batch of Hamming distances from a DB scan (spec 4.6): mean, standard
// deviation, and range, for benchmark and demo tooling that has plaintext
// distances available (protocols/plaintext's reference engine, or an
// operator auditing already-opened results) — never the live 3PC protocol,
// which only ever opens the final any-match bit.
package scanstats

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Summary is a numeric summary of one batch of distances.
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes Summary over distances, erroring if the batch is
// empty (mean/stddev are undefined there).
func Summarize(distances []int) (Summary, error) {
	if len(distances) == 0 {
		return Summary{}, fmt.Errorf("scanstats: no distances to summarize")
	}
	data := make(stats.Float64Data, len(distances))
	for i, d := range distances {
		data[i] = float64(d)
	}
	mean, err := data.Mean()
	if err != nil {
		return Summary{}, fmt.Errorf("scanstats: computing mean: %w", err)
	}
	stddev, err := data.StandardDeviation()
	if err != nil {
		return Summary{}, fmt.Errorf("scanstats: computing stddev: %w", err)
	}
	lo, err := data.Min()
	if err != nil {
		return Summary{}, fmt.Errorf("scanstats: computing min: %w", err)
	}
	hi, err := data.Max()
	if err != nil {
		return Summary{}, fmt.Errorf("scanstats: computing max: %w", err)
	}
	return Summary{Mean: mean, StdDev: stddev, Min: lo, Max: hi}, nil
}
