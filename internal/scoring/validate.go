package scoring

import "fmt"

// Validate looks for states no sequence of operations should produce. The
// caller logs what it finds; nothing is repaired.
func Validate(m *Match) []error {
	var problems []error
	innings := m.Current()

	if !m.OnStrikeBatsmanID.IsZero() && m.OnStrikeBatsmanID == m.NonStrikeBatsmanID {
		problems = append(problems, fmt.Errorf("both batting slots hold %s", m.OnStrikeBatsmanID))
	}
	for _, id := range []NullID{m.OnStrikeBatsmanID, m.NonStrikeBatsmanID} {
		if b := innings.Batsman(id); b != nil && b.Status == Out {
			problems = append(problems, fmt.Errorf("dismissed batsman %s still at the crease", id))
		}
	}
	if innings.BallsInOver < 0 || innings.BallsInOver > BallsPerOver {
		problems = append(problems, fmt.Errorf("ballsInOver out of range: %d", innings.BallsInOver))
	}
	if innings.Wickets > m.Rules.MaxWickets() {
		problems = append(problems, fmt.Errorf("wickets %d exceed limit %d", innings.Wickets, m.Rules.MaxWickets()))
	}

	current := 0
	for _, b := range innings.BowlingStats {
		if b.IsCurrent {
			current++
		}
	}
	if current > 1 {
		problems = append(problems, fmt.Errorf("%d bowlers flagged current", current))
	}

	return problems
}
