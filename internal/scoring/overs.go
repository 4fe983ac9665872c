package scoring

import "math"

// BallsPerOver is fixed for every format this engine scores.
const BallsPerOver = 6

// BallsFromOvers converts a completed.balls display value (4.5) to legal balls (29).
func BallsFromOvers(overs float64) int {
	whole := math.Floor(overs)
	part := int(math.Round((overs - whole) * 10))
	return int(whole)*BallsPerOver + part
}

// OversFromBalls converts legal balls to the completed.balls display value.
// Computing from an integer count keeps the display free of float drift.
func OversFromBalls(balls int) float64 {
	return float64(balls/BallsPerOver) + float64(balls%BallsPerOver)/10
}

// CompletedOvers is the number of whole overs in a display value.
func CompletedOvers(overs float64) int {
	return BallsFromOvers(overs) / BallsPerOver
}
