package pollProcessing

import "vsc-polls/modules/common"

// Op is one host submitted operation. Payload is usually a decoded JSON object.
type Op struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

type TxResult struct {
	Success   bool               `json:"success"`
	Ret       string             `json:"ret,omitempty"`
	ErrorCode common.ErrorSymbol `json:"error_code,omitempty"`
}

// More information about the TX
type TxSelf struct {
	TxId        string
	BlockHeight uint64
	Caller      common.Principal
}

func (s TxSelf) Env() common.Environment {
	return common.Environment{BlockHeight: s.BlockHeight, Caller: s.Caller}
}

// Tx is a decoded operation. Fields are pointers so a missing field can be told apart from
// a zero value; each carries the error symbol reported when it is missing.
type Tx interface {
	Type() string
	ExecuteTx(p *Processor, self TxSelf) TxResult
}
