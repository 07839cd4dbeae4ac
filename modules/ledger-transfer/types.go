package ledgerTransfer

import "vsc-polls/modules/common"

const (
	TypeStake    = "stake"
	TypeWithdraw = "withdraw"
)

// TransferIntent is an instruction for the settlement layer. Recording it does not move
// funds; the core only guarantees the intent is recorded before its state changes.
type TransferIntent struct {
	Id          string           `json:"id" bson:"id"`
	From        common.Principal `json:"fr" bson:"from"`
	To          common.Principal `json:"to" bson:"to"`
	Amount      int64            `json:"am" bson:"amount"`
	Asset       string           `json:"as" bson:"asset"`
	PollId      uint64           `json:"poll_id" bson:"poll_id"`
	Type        string           `json:"ty" bson:"type"` // stake, withdraw
	BlockHeight uint64           `json:"block_height" bson:"block_height"`
}

type Sink interface {
	Transfer(intent TransferIntent) error
}
