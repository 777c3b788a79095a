package kinematics

import "math"

// SectorCount is the number of 45° heading sectors.
const SectorCount = 8

// directionNames labels sectors 0..7. The order is kept as-is for
// compatibility with existing reports even though it does not read as a
// compass walk.
var directionNames = [SectorCount]string{
	"Este", "Noreste", "Norte", "Noroeste",
	"Oeste", "Suroeste", "Sur", "Sureste",
}

// Bearing returns atan2(dy, dx) in degrees, in (-180, 180].
func Bearing(dx, dy float64) float64 {
	return math.Atan2(dy, dx) * 180 / math.Pi
}

// DirectionSector buckets a segment's bearing into one of eight sectors:
// round(bearing/45) mod 8. Halves round to even and the modulo is floored,
// so -45° lands in sector 7 and ±180° in sector 4.
func DirectionSector(dx, dy float64) int {
	return sectorOf(Bearing(dx, dy))
}

func sectorOf(bearing float64) int {
	s := int(math.RoundToEven(bearing/45)) % SectorCount
	if s < 0 {
		s += SectorCount
	}
	return s
}

// DirectionName returns the label for a sector, or "N/A" when out of range.
func DirectionName(sector int) string {
	if sector < 0 || sector >= SectorCount {
		return "N/A"
	}
	return directionNames[sector]
}

// DirectionNames returns the sector labels in sector order.
func DirectionNames() []string {
	out := make([]string, SectorCount)
	copy(out, directionNames[:])
	return out
}

// Bearings returns the bearing of every segment of t in degrees.
func Bearings(t *Trajectory) []float64 {
	if t.Len() < 2 {
		return nil
	}
	out := make([]float64, 0, t.Len()-1)
	for i := 1; i < t.Len(); i++ {
		a, b := t.Samples[i-1], t.Samples[i]
		out = append(out, Bearing(b.X-a.X, b.Y-a.Y))
	}
	return out
}

// mainSector picks the most populated sector; the lowest index wins a tie.
func mainSector(counts [SectorCount]int) int {
	best := 0
	for i := 1; i < SectorCount; i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}
