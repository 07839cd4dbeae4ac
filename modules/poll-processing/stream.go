package pollProcessing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"vsc-polls/lib/logger"
	a "vsc-polls/modules/aggregate"
	"vsc-polls/modules/common"

	"github.com/chebyrash/promise"
)

// Line format read by Stream
type StreamOp struct {
	TxId        string                 `json:"tx_id"`
	BlockHeight uint64                 `json:"block_height"`
	Caller      common.Principal       `json:"caller"`
	Type        string                 `json:"type"`
	Payload     map[string]interface{} `json:"payload"`
}

// Line format written by Stream
type StreamResult struct {
	TxId string `json:"tx_id"`
	TxResult
}

// Stream feeds newline delimited JSON operations from in to the processor and writes one
// result line per operation to out.
type Stream struct {
	processor *Processor
	in        io.Reader
	out       io.Writer

	cancel context.CancelFunc
	once   sync.Once
	log    logger.Logger
}

var _ a.Plugin = &Stream{}

func NewStream(processor *Processor, in io.Reader, out io.Writer) *Stream {
	return &Stream{
		processor: processor,
		in:        in,
		out:       out,
		log:       logger.PrefixedLogger{Prefix: "stream"},
	}
}

func (s *Stream) Init() error {
	return nil
}

// Run processes lines until in is exhausted or ctx is cancelled. Unparseable lines are
// answered with INVALID_PAYLOAD and do not stop the stream.
func (s *Stream) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		op := StreamOp{}
		var res StreamResult
		if err := decodeLine(line, &op); err != nil {
			s.log.Debug("unparseable line", "err", err)
			res = StreamResult{TxResult: TxResult{ErrorCode: common.ErrInvalidPayload}}
		} else {
			self := TxSelf{TxId: op.TxId, BlockHeight: op.BlockHeight, Caller: op.Caller}
			res = StreamResult{op.TxId, s.processor.Execute(self, Op{op.Type, op.Payload})}
		}

		if err := encoder.Encode(res); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return scanner.Err()
}

// Numbers stay json.Number so integers past 2^53 reach the payload decoder intact.
func decodeLine(line []byte, op *StreamOp) error {
	decoder := json.NewDecoder(bytes.NewReader(line))
	decoder.UseNumber()
	if err := decoder.Decode(op); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("trailing data after operation")
	}
	return nil
}

func (s *Stream) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go func() {
			if err := s.Run(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("stream stopped", "err", err)
				return
			}
			s.log.Info("input exhausted")
		}()
		resolve(nil)
	})
}

// Stop does not wait for a read blocked on in.
func (s *Stream) Stop() error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
	return nil
}
