package common

import "slices"

// Opaque account identifier supplied by the host for every call
type Principal string

func (p Principal) String() string {
	return string(p)
}

func (p Principal) IsNull() bool {
	return p == NULL_PRINCIPAL
}

// Environment is the per-call context handed in by the host: who is calling and at what
// block height. The core never reads a clock of its own.
type Environment struct {
	BlockHeight uint64
	Caller      Principal
}

type PollType string

const (
	PollTypeStandard  PollType = "standard"
	PollTypePremium   PollType = "premium"
	PollTypeCommunity PollType = "community"
)

var pollTypes = []PollType{PollTypeStandard, PollTypePremium, PollTypeCommunity}

func (t PollType) Valid() bool {
	return slices.Contains(pollTypes, t)
}

func PollTypes() []PollType {
	return slices.Clone(pollTypes)
}
