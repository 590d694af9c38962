package spot

// Reading is one tick's worth of sensor input.
type Reading struct {
	DistanceCm int
	NoiseRaw   int
}

// Thresholds tune the classifier.
type Thresholds struct {
	// OccupiedCm is the distance at or below which something is in the spot.
	OccupiedCm int
	// NoiseRaw is the raw sound level above which an engine is assumed running.
	NoiseRaw int
	// MotionDeltaCm is the tick-to-tick distance change that counts as movement.
	MotionDeltaCm int
}

// NormalizeDistance maps a missing echo (0) to the out-of-range sentinel so
// that it reads as a clearly empty spot.
func NormalizeDistance(cm, noEchoCm int) int {
	if cm <= 0 {
		return noEchoCm
	}
	return cm
}

// Classify turns a reading and the previous tick's distance into a status
// and the lamp that goes with it. It is a full re-evaluation on every call:
// the only memory is previousDistanceCm.
//
// Motion needs both an engine-noise signature and a changing distance;
// noise alone keeps the spot OCCUPIED.
func Classify(r Reading, previousDistanceCm int, th Thresholds) (Status, IndicatorLevel) {
	var st Status
	switch {
	case r.DistanceCm > th.OccupiedCm:
		st = StatusFree
	case r.NoiseRaw > th.NoiseRaw && absInt(r.DistanceCm-previousDistanceCm) > th.MotionDeltaCm:
		st = StatusInMotion
	default:
		st = StatusOccupied
	}
	return st, IndicatorFor(st)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
