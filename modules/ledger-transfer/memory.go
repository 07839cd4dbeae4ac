package ledgerTransfer

import (
	"errors"
	"fmt"
	"sync"
	"vsc-polls/modules/common"
)

var ErrDuplicateId = errors.New("duplicate transfer id")

// Memory keeps the transfer oplog and a running balance view per account and asset.
type Memory struct {
	mtx      sync.Mutex
	oplog    []TransferIntent
	balances map[string]int64
	ids      map[string]struct{}
}

var _ Sink = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		oplog:    make([]TransferIntent, 0),
		balances: make(map[string]int64),
		ids:      make(map[string]struct{}),
	}
}

func (m *Memory) Transfer(intent TransferIntent) error {
	if intent.Amount < 0 {
		return fmt.Errorf("invalid amount %d", intent.Amount)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if _, exists := m.ids[intent.Id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateId, intent.Id)
	}
	m.ids[intent.Id] = struct{}{}

	m.balances[key(intent.From, intent.Asset)] -= intent.Amount
	m.balances[key(intent.To, intent.Asset)] += intent.Amount
	m.oplog = append(m.oplog, intent)
	return nil
}

// Net balance change of account across all recorded intents
func (m *Memory) GetBalance(account common.Principal, asset string) int64 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.balances[key(account, asset)]
}

func (m *Memory) Export() []TransferIntent {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	out := make([]TransferIntent, len(m.oplog))
	copy(out, m.oplog)
	return out
}

func key(account common.Principal, asset string) string {
	return account.String() + "#" + asset
}

// IntentId names the seq'th transfer recorded by a ledger. seq alone makes it unique; the
// other parts keep it readable.
func IntentId(txType string, pollId uint64, account common.Principal, blockHeight uint64, seq uint64) string {
	return fmt.Sprintf("%s-%d-%s-%d-%d", txType, pollId, account, blockHeight, seq)
}
