package tracer

import "math"

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split frame into blocks of variable height and assign them to the
	// tracers. The returned slice holds the block height for each tracer
	// and always sums up to frameH. The number of tracers must not exceed
	// frameH.
	Schedule(tracers []Tracer, frameH uint32) []uint32
}

// The naive scheduler splits the frame based on the tracer speed estimates.
type naiveScheduler struct{}

func NaiveScheduler() BlockScheduler {
	return naiveScheduler{}
}

func (sch naiveScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	weights := make([]float64, len(tracers))
	for idx, tr := range tracers {
		weights[idx] = float64(tr.SpeedEstimate())
	}
	return distributeRows(weights, frameH)
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent frames is approximately the same.
type perfectScheduler struct {
	blockAssignment []uint32
}

func PerfectScheduler() BlockScheduler {
	return &perfectScheduler{}
}

// When previous frame information is available the scheduler uses the
// following formula for estimating the workload for tracer w and frame i+1:
// w_i, f_i+1 = (blockH,w_i / time,w_i) / Σ(blockH_i-1 / time,i-1)
func (sch *perfectScheduler) Schedule(tracers []Tracer, frameH uint32) []uint32 {
	// If this is the first time we schedule or the number of tracers
	// has changed fall back to the speed estimates
	if len(sch.blockAssignment) != len(tracers) {
		sch.blockAssignment = NaiveScheduler().Schedule(tracers, frameH)
		return sch.blockAssignment
	}

	weights := make([]float64, len(tracers))
	for idx, tr := range tracers {
		stats := tr.Stats()
		renderTime := math.Max(1, float64(stats.RenderTime))
		weights[idx] = float64(stats.BlockH) / renderTime
	}

	sch.blockAssignment = distributeRows(weights, frameH)
	return sch.blockAssignment
}

// Split frameH rows proportionally to the given weights. Each entry gets at
// least one row; rounding leftovers go to the first entry.
func distributeRows(weights []float64, frameH uint32) []uint32 {
	rows := make([]uint32, len(weights))
	if len(weights) == 0 {
		return rows
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 || math.IsInf(total, 0) || math.IsNaN(total) {
		// No usable feedback; split evenly
		for idx := range weights {
			weights[idx] = 1
		}
		total = float64(len(weights))
	}

	scaler := float64(frameH) / total
	var scheduledRows uint32
	for idx, w := range weights {
		rows[idx] = uint32(math.Max(1.0, math.Floor(w*scaler)))
		scheduledRows += rows[idx]
	}

	// Take back rows from the largest blocks if the one-row minimum
	// overbooked the frame
	for scheduledRows > frameH {
		largest := 0
		for idx := range rows {
			if rows[idx] > rows[largest] {
				largest = idx
			}
		}
		if rows[largest] <= 1 {
			break
		}
		rows[largest]--
		scheduledRows--
	}

	if scheduledRows < frameH {
		rows[0] += frameH - scheduledRows
	}
	return rows
}
