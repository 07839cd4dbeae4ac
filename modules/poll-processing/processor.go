package pollProcessing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"sync"
	"vsc-polls/lib/logger"
	"vsc-polls/modules/common"
	pollRegistry "vsc-polls/modules/poll-registry"
	voteLedger "vsc-polls/modules/vote-ledger"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

var txTypes = map[string]func() Tx{
	"poll.set_authority": func() Tx { return &TxPollSetAuthority{} },
	"poll.set_max_polls": func() Tx { return &TxPollSetMaxPolls{} },
	"poll.create":        func() Tx { return &TxCreatePoll{} },
	"poll.update":        func() Tx { return &TxUpdatePoll{} },
	"poll.close":         func() Tx { return &TxClosePoll{} },
	"vote.set_authority": func() Tx { return &TxVoteSetAuthority{} },
	"vote.set_max_votes": func() Tx { return &TxSetMaxVotes{} },
	"vote.set_min_stake": func() Tx { return &TxSetMinStake{} },
	"vote.ban":           func() Tx { return &TxBanVoter{} },
	"vote.unban":         func() Tx { return &TxUnbanVoter{} },
	"vote.set_poll_type": func() Tx { return &TxSetPollType{} },
	"vote.add_option":    func() Tx { return &TxAddOption{} },
	"vote.stake":         func() Tx { return &TxStake{} },
	"vote.cast":          func() Tx { return &TxCastVote{} },
	"vote.withdraw":      func() Tx { return &TxWithdraw{} },
}

// Processor decodes host operations and applies them to the registry and ledger, one at a
// time and in submission order.
type Processor struct {
	polls *pollRegistry.PollRegistry
	votes *voteLedger.VoteLedger

	validate *validator.Validate

	mtx        sync.Mutex
	lastHeight uint64
	log        logger.Logger
}

func New(polls *pollRegistry.PollRegistry, votes *voteLedger.VoteLedger) *Processor {
	return &Processor{
		polls:    polls,
		votes:    votes,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logger.PrefixedLogger{Prefix: "poll-processing"},
	}
}

// Decode turns op into its typed transaction. A missing field yields the error symbol the
// managers use for that field; an unknown type or malformed payload yields INVALID_PAYLOAD.
func (p *Processor) Decode(op Op) (Tx, common.ErrorSymbol) {
	newTx, ok := txTypes[op.Type]
	if !ok {
		return nil, common.ErrInvalidPayload
	}
	tx := newTx()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      tx,
		ErrorUnused: true,
		DecodeHook:  exactIntegers,
	})
	if err != nil {
		return nil, common.ErrInvalidPayload
	}
	if err := decoder.Decode(op.Payload); err != nil {
		p.log.Debug("malformed payload", "type", op.Type, "err", err)
		return nil, common.ErrInvalidPayload
	}

	if err := p.validate.Struct(tx); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, missingSymbol(tx, fieldErrs[0].StructField())
		}
		return nil, common.ErrInvalidPayload
	}
	return tx, ""
}

// Execute applies op on behalf of self.Caller at self.BlockHeight.
func (p *Processor) Execute(self TxSelf, op Op) TxResult {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if self.BlockHeight > p.lastHeight {
		p.lastHeight = self.BlockHeight
	}

	tx, symbol := p.Decode(op)
	if symbol != "" {
		return TxResult{Success: false, ErrorCode: symbol}
	}

	res := tx.ExecuteTx(p, self)
	p.log.Debug("tx executed",
		"tx_id", self.TxId,
		"type", tx.Type(),
		"caller", self.Caller,
		"block_height", self.BlockHeight,
		"success", res.Success,
		"error_code", res.ErrorCode,
	)
	return res
}

// LastHeight is the highest block height seen by Execute
func (p *Processor) LastHeight() uint64 {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.lastHeight
}

// Consistent runs read between operations, with the last applied height. Registry and
// ledger reads made inside read all see the same state.
func (p *Processor) Consistent(read func(height uint64)) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	read(p.lastHeight)
}

// Largest magnitude below which every float64 is exactly one integer
const maxExactFloat = 1 << 53

// exactIntegers stops mapstructure from truncating fractions or rounded floats into
// integer fields. Hosts that need the full 64 bit range send json.Number.
func exactIntegers(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}

	switch v := data.(type) {
	case float32:
		return exactFloat(float64(v), data)
	case float64:
		return exactFloat(v, data)
	case json.Number:
		if _, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return data, nil
		}
		if _, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return data, nil
		}
		return nil, fmt.Errorf("%s is not a 64 bit integer", v)
	}
	return data, nil
}

func exactFloat(f float64, data interface{}) (interface{}, error) {
	if f != math.Trunc(f) || math.Abs(f) >= maxExactFloat {
		return nil, fmt.Errorf("%v is not an exact integer", f)
	}
	return data, nil
}

func missingSymbol(tx Tx, fieldName string) common.ErrorSymbol {
	field, ok := reflect.TypeOf(tx).Elem().FieldByName(fieldName)
	if !ok {
		return common.ErrInvalidPayload
	}
	symbol := common.ErrorSymbol(field.Tag.Get("symbol"))
	if symbol == "" {
		return common.ErrInvalidPayload
	}
	return symbol
}
