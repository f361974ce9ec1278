package dial

import (
	"math"
	"strconv"
)

// Evaluation scores a reported frequency against the target.
type Evaluation struct {
	FrequencyOffset  int    `json:"frequency_offset"`
	FrequencyDiffAbs int    `json:"frequency_diff_abs"`
	Performance      string `json:"performance"`
}

// Evaluate rounds half to even. The signed and absolute offsets are rounded
// separately from the raw difference.
func Evaluate(target, reported float64) Evaluation {
	diff := reported - target
	offset := int(math.RoundToEven(diff))
	label := strconv.Itoa(offset)
	if offset > 0 {
		label = "+" + label
	}
	return Evaluation{
		FrequencyOffset:  offset,
		FrequencyDiffAbs: int(math.RoundToEven(math.Abs(diff))),
		Performance:      label,
	}
}

// roundMs rounds milliseconds to two decimals, half to even.
func roundMs(ms float64) float64 {
	return math.RoundToEven(ms*100) / 100
}
