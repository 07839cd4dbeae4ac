package eventSink

import "vsc-polls/modules/common"

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventClosed  EventType = "closed"
)

type PollEvent struct {
	//Strictly increasing per registry
	Id          uint64           `json:"id" bson:"id"`
	PollId      uint64           `json:"poll_id" bson:"poll_id"`
	Type        EventType        `json:"type" bson:"type"`
	Actor       common.Principal `json:"actor" bson:"actor"`
	BlockHeight uint64           `json:"block_height" bson:"block_height"`
}

type VoteEvent struct {
	//Vote counter value before the vote was recorded
	Id          uint64           `json:"id" bson:"id"`
	PollId      uint64           `json:"poll_id" bson:"poll_id"`
	Voter       common.Principal `json:"voter" bson:"voter"`
	OptionId    uint64           `json:"option_id" bson:"option_id"`
	Weight      uint8            `json:"weight" bson:"weight"`
	BlockHeight uint64           `json:"block_height" bson:"block_height"`
}

// Sink receives state change events. It is append-only; the core never reads it back.
// A returned error aborts the transition that produced the event.
type Sink interface {
	EmitPollEvent(event PollEvent) error
	EmitVoteEvent(event VoteEvent) error
}
