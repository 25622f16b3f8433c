package profit

import "math"

// HarvestStagesFromHours counts the complete stages that fit in hours.
// Partial stages never round up; a non-positive stage duration maps to 0.
func HarvestStagesFromHours(hours, stageDurationHours float64) int {
	safeHours := nonNegative.Normalize(hours)
	safeStage := nonNegative.Normalize(stageDurationHours)
	if safeStage <= 0 {
		return 0
	}
	return int(math.Floor(safeHours / safeStage))
}

// HoursForStages is the wall-clock length of n stages.
func HoursForStages(stages int, stageDurationHours float64) float64 {
	if stages <= 0 {
		return 0
	}
	return float64(stages) * nonNegative.Normalize(stageDurationHours)
}
