package voteLedger

import (
	"vsc-polls/modules/common"
	pollRegistry "vsc-polls/modules/poll-registry"

	"github.com/moznion/go-optional"
)

// PollReader is the read-only view of poll state the ledger validates against.
// *pollRegistry.PollRegistry satisfies it.
type PollReader interface {
	GetPoll(pollId uint64) optional.Option[pollRegistry.Poll]
}

var _ PollReader = &pollRegistry.PollRegistry{}

type VoteKey struct {
	PollId uint64
	Voter  common.Principal
}

type OptionKey struct {
	PollId   uint64
	OptionId uint64
}

type Vote struct {
	OptionId   uint64 `json:"option_id" bson:"option_id"`
	VoteWeight uint8  `json:"vote_weight" bson:"vote_weight"`
	//Block height the vote was cast at
	Timestamp uint64 `json:"timestamp" bson:"timestamp"`
}

type Stake struct {
	Amount int64 `json:"amount" bson:"amount"`
}

type Option struct {
	//Sum of weights cast for the option
	VoteCount uint64 `json:"vote_count" bson:"vote_count"`
}

type OptionTally struct {
	OptionId  uint64 `json:"option_id" bson:"option_id"`
	VoteCount uint64 `json:"vote_count" bson:"vote_count"`
}
