package scoring

import (
	"fmt"
	"strings"
)

// CommentaryParams is what the one-line ball commentary is built from.
type CommentaryParams struct {
	Runs       int
	IsWicket   bool
	ExtraType  ExtraType
	WicketType WicketType
}

func s(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// GenerateCommentary returns the short text shown for a ball in the feed.
func GenerateCommentary(p CommentaryParams) string {
	if p.IsWicket {
		kind := "run out"
		if p.WicketType != "" {
			kind = strings.ReplaceAll(strings.ToLower(string(p.WicketType)), "_", " ")
		}
		return fmt.Sprintf("WICKET! %s.", kind)
	}

	switch p.ExtraType {
	case ExtraWide, ExtraNoBall:
		label := "wide"
		if p.ExtraType == ExtraNoBall {
			label = "no ball"
		}
		if p.Runs == 0 {
			if p.ExtraType == ExtraWide {
				return "wide ball."
			}
			return "no ball."
		}
		total := p.Runs + 1
		return fmt.Sprintf("%s +%d run%s. Total %d extra%s.", label, p.Runs, s(p.Runs), total, s(total))
	case ExtraBye:
		return fmt.Sprintf("%d bye%s.", p.Runs, s(p.Runs))
	case ExtraLegBye:
		return fmt.Sprintf("%d leg bye%s.", p.Runs, s(p.Runs))
	}

	switch p.Runs {
	case 0:
		return "no run."
	case 4:
		return "FOUR"
	case 6:
		return "SIX"
	}
	return fmt.Sprintf("%d run%s.", p.Runs, s(p.Runs))
}
