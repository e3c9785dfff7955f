package render

import (
	"math"
	"strconv"
)

// niceTicks returns round tick positions inside [lo, hi], at most about
// maxTicks of them.
func niceTicks(lo, hi float64, maxTicks int) []float64 {
	if !(hi > lo) || maxTicks < 2 {
		return []float64{lo}
	}
	span := niceNum(hi-lo, false)
	step := niceNum(span/float64(maxTicks-1), true)

	start := math.Ceil(lo/step) * step
	n := int(math.Floor((hi-start)/step + 1e-9))
	ticks := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		v := start + float64(i)*step
		if math.Abs(v) < step*1e-9 {
			v = 0
		}
		ticks = append(ticks, v)
	}
	return ticks
}

func niceNum(x float64, round bool) float64 {
	exp := math.Floor(math.Log10(x))
	f := x / math.Pow(10, exp)

	var nf float64
	switch {
	case round && f < 1.5:
		nf = 1
	case round && f < 3:
		nf = 2
	case round && f < 7:
		nf = 5
	case round:
		nf = 10
	case f <= 1:
		nf = 1
	case f <= 2:
		nf = 2
	case f <= 5:
		nf = 5
	default:
		nf = 10
	}
	return nf * math.Pow(10, exp)
}

// tickLabels formats ticks with enough significant digits to tell
// neighbouring ticks apart, so offset ranges such as [1e6, 1e6+1] keep
// distinct labels.
func tickLabels(ticks []float64) []string {
	digits := 6
	if len(ticks) > 1 {
		step := math.Abs(ticks[1] - ticks[0])
		big := math.Max(math.Abs(ticks[0]), math.Abs(ticks[len(ticks)-1]))
		if step > 0 && big > 0 {
			// one guard digit absorbs Log10 rounding just below a power of ten
			digits = int(math.Floor(math.Log10(big))-math.Floor(math.Log10(step))) + 2
		}
	}
	digits = min(max(digits, 1), 15)

	labels := make([]string, len(ticks))
	for i, v := range ticks {
		labels[i] = strconv.FormatFloat(v, 'g', digits, 64)
	}
	return labels
}
