package beat

import "math"

// Threshold is the mean strength of the frames that hold a beat. Frames below
// 1 are excluded from both the sum and the count. With no beat frames at all
// the threshold is +Inf, so every strength classifies as weak.
func Threshold(frames []float64) float64 {
	var sum float64
	n := 0
	for _, v := range frames {
		if v < 1 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.Inf(1)
	}
	return sum / float64(n)
}

// Thresholds computes Threshold for each channel independently.
func Thresholds(s Series) [2]float64 {
	return [2]float64{
		Threshold(s.Channels[Channel1]),
		Threshold(s.Channels[Channel2]),
	}
}

// Column is one of the four marker lanes: a weak and a strong lane per channel.
type Column int

const (
	Column1 Column = iota // channel 1, weak
	Column2               // channel 1, strong
	Column3               // channel 2, weak
	Column4               // channel 2, strong
)

// NumColumns is the number of lanes.
const NumColumns = 4

func (c Column) String() string {
	switch c {
	case Column1:
		return "Column1"
	case Column2:
		return "Column2"
	case Column3:
		return "Column3"
	case Column4:
		return "Column4"
	default:
		return "Column?"
	}
}

// Strong reports whether c is a strong-beat lane.
func (c Column) Strong() bool { return c == Column2 || c == Column4 }

// Channel returns the channel that feeds c.
func (c Column) Channel() int {
	if c >= Column3 {
		return Channel2
	}
	return Channel1
}

// Classify maps a strength on channel to its lane: below the channel's
// threshold is weak, anything else strong.
func Classify(channel int, strength, threshold float64) Column {
	base := Column1
	if channel == Channel2 {
		base = Column3
	}
	if strength < threshold {
		return base
	}
	return base + 1
}
