package common

import (
	"errors"

	"github.com/JustinKnueppel/go-result"
)

// ErrorSymbol is the only failure value poll and vote operations return.
type ErrorSymbol string

func (e ErrorSymbol) Error() string {
	return string(e)
}

const (
	// authorization
	ErrNotAuthorized    ErrorSymbol = "NOT_AUTHORIZED"
	ErrInvalidAuthority ErrorSymbol = "INVALID_AUTHORITY"
	ErrInvalidCreator   ErrorSymbol = "INVALID_CREATOR"
	ErrInvalidVoter     ErrorSymbol = "INVALID_VOTER"

	// validation
	ErrInvalidTitle            ErrorSymbol = "INVALID_TITLE"
	ErrInvalidDescription      ErrorSymbol = "INVALID_DESCRIPTION"
	ErrInvalidDuration         ErrorSymbol = "INVALID_DURATION"
	ErrInvalidStakeRequirement ErrorSymbol = "INVALID_STAKE_REQUIREMENT"
	ErrInvalidStakeAmount      ErrorSymbol = "INVALID_STAKE_AMOUNT"
	ErrInvalidVoteWeight       ErrorSymbol = "INVALID_VOTE_WEIGHT"
	ErrInvalidPollId           ErrorSymbol = "INVALID_POLL_ID"
	ErrInvalidOptionId         ErrorSymbol = "INVALID_OPTION_ID"
	ErrInvalidPollType         ErrorSymbol = "INVALID_POLL_TYPE"
	ErrInvalidMaxVotes         ErrorSymbol = "INVALID_MAX_VOTES"
	ErrInvalidPayload          ErrorSymbol = "INVALID_PAYLOAD"

	// not found
	ErrPollNotFound   ErrorSymbol = "POLL_NOT_FOUND"
	ErrOptionNotFound ErrorSymbol = "OPTION_NOT_FOUND"

	// state conflict
	ErrPollNotActive       ErrorSymbol = "POLL_NOT_ACTIVE"
	ErrVotingPeriodEnded   ErrorSymbol = "VOTING_PERIOD_ENDED"
	ErrAlreadyVoted        ErrorSymbol = "ALREADY_VOTED"
	ErrVoterBanned         ErrorSymbol = "VOTER_BANNED"
	ErrInsufficientStake   ErrorSymbol = "INSUFFICIENT_STAKE"
	ErrMaxPollsExceeded    ErrorSymbol = "MAX_POLLS_EXCEEDED"
	ErrMaxVotesExceeded    ErrorSymbol = "MAX_VOTES_EXCEEDED"
	ErrOptionAlreadyExists ErrorSymbol = "OPTION_ALREADY_EXISTS"

	// collaborators
	ErrEmitEventFailed ErrorSymbol = "EMIT_EVENT_FAILED"
	ErrTransferFailed  ErrorSymbol = "TRANSFER_FAILED"
)

func Fail[T any](symbol ErrorSymbol) result.Result[T] {
	return result.Err[T](symbol)
}

// Symbol extracts the ErrorSymbol carried by a failed result.
// Returns "" for a successful result.
func Symbol[T any](res result.Result[T]) ErrorSymbol {
	if res.IsOk() {
		return ""
	}
	return SymbolOf(res.UnwrapErr())
}

func SymbolOf(err error) ErrorSymbol {
	var symbol ErrorSymbol
	if errors.As(err, &symbol) {
		return symbol
	}
	return ""
}
