package scoring

import "errors"

// Precondition errors. The operation was called out of sequence and nothing
// was changed.
var (
	ErrNoStriker           = errors.New("no on-strike batsman selected")
	ErrNoNonStriker        = errors.New("no non-strike batsman selected")
	ErrNoBowler            = errors.New("no current bowler selected")
	ErrMatchNotLive        = errors.New("match is not live")
	ErrMatchNotCompleted   = errors.New("match is not completed")
	ErrTossNotRecorded     = errors.New("toss has not been recorded")
	ErrTossAlreadyRecorded = errors.New("toss already recorded")
	ErrNoVacantSlot        = errors.New("both batting slots are occupied")
	ErrBowlerAlreadyActive = errors.New("a bowler is already bowling this over")
	ErrDismissalPending    = errors.New("a dismissal is waiting for confirmation")
	ErrInvalidTransition   = errors.New("invalid match status transition")
)

// Invalid-operation errors. The request itself is wrong.
var (
	ErrInvalidRuns         = errors.New("runs must not be negative")
	ErrInvalidExtraType    = errors.New("unknown extra type")
	ErrInvalidRunType      = errors.New("unknown run type")
	ErrInvalidWicketType   = errors.New("unknown wicket type")
	ErrFielderRequired     = errors.New("wicket type requires a fielder")
	ErrBatsmanNotFound     = errors.New("batsman not found in innings")
	ErrBatsmanAlreadyOut   = errors.New("batsman is already out")
	ErrBatsmanAlreadyIn    = errors.New("batsman has already batted this innings")
	ErrSamePlayer          = errors.New("striker and non-striker must differ")
	ErrSameBowler          = errors.New("bowler cannot bowl consecutive overs")
	ErrBowlerOverLimit     = errors.New("bowler has reached the maximum overs")
	ErrUnknownTeam         = errors.New("team is not part of this match")
	ErrInvalidTossDecision = errors.New("toss decision must be bat or bowl")
	ErrWicketNotValid      = errors.New("wicket does not stand on a free hit")
	ErrIllegalWithoutExtra = errors.New("only a wide or no ball can be an illegal delivery")
)

// IsPrecondition reports whether err is a sequencing error.
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrNoStriker, ErrNoNonStriker, ErrNoBowler, ErrMatchNotLive, ErrMatchNotCompleted,
		ErrTossNotRecorded, ErrTossAlreadyRecorded, ErrNoVacantSlot, ErrBowlerAlreadyActive,
		ErrDismissalPending, ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInvalidOperation reports whether err rejects the request's contents.
func IsInvalidOperation(err error) bool {
	for _, target := range []error{
		ErrInvalidRuns, ErrInvalidExtraType, ErrInvalidRunType, ErrInvalidWicketType,
		ErrFielderRequired, ErrBatsmanNotFound, ErrBatsmanAlreadyOut, ErrBatsmanAlreadyIn,
		ErrSamePlayer, ErrSameBowler, ErrBowlerOverLimit, ErrUnknownTeam,
		ErrInvalidTossDecision, ErrWicketNotValid, ErrIllegalWithoutExtra,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
