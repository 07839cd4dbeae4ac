package pollProcessing_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"vsc-polls/modules/common"
	pollProcessing "vsc-polls/modules/poll-processing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRun(t *testing.T) {
	n := newNode()
	in := strings.Join([]string{
		`{"tx_id":"a","block_height":0,"caller":"ST1TEST","type":"poll.create","payload":{"title":"Best Artist","description":"Vote for your favorite artist","duration":100,"stake_required":50,"poll_type":"standard"}}`,
		``,
		`not json`,
		`{"tx_id":"b","block_height":3,"caller":"ST2FAKE","type":"poll.close","payload":{"poll_id":0}}`,
		`{"tx_id":"c","block_height":4,"caller":"ST1TEST","type":"poll.close","payload":{"poll_id":0}}`,
	}, "\n")
	out := &bytes.Buffer{}

	stream := pollProcessing.NewStream(n.processor, strings.NewReader(in), out)
	require.NoError(t, stream.Run(context.Background()))

	results := make([]pollProcessing.StreamResult, 0)
	decoder := json.NewDecoder(out)
	for decoder.More() {
		res := pollProcessing.StreamResult{}
		require.NoError(t, decoder.Decode(&res))
		results = append(results, res)
	}

	assert.Equal(t, []pollProcessing.StreamResult{
		{TxId: "a", TxResult: pollProcessing.TxResult{Success: true, Ret: "0"}},
		{TxResult: pollProcessing.TxResult{ErrorCode: common.ErrInvalidPayload}},
		{TxId: "b", TxResult: pollProcessing.TxResult{ErrorCode: common.ErrNotAuthorized}},
		{TxId: "c", TxResult: pollProcessing.TxResult{Success: true}},
	}, results)
	assert.False(t, n.polls.GetPoll(0).Unwrap().IsActive)
	assert.Equal(t, uint64(4), n.processor.LastHeight())
}

func TestStreamKeepsLargeIntegersExact(t *testing.T) {
	n := newNode()
	in := strings.Join([]string{
		`{"tx_id":"a","block_height":0,"caller":"ST1TEST","type":"poll.create","payload":{"title":"t","description":"d","duration":10,"stake_required":0,"poll_type":"standard"}}`,
		`{"tx_id":"b","block_height":0,"caller":"ST1TEST","type":"poll.create","payload":{"title":"t","description":"d","duration":10,"stake_required":0,"poll_type":"standard"}}`,
		`{"tx_id":"c","block_height":1,"caller":"ST2VOTER","type":"vote.stake","payload":{"poll_id":1,"amount":9007199254740993}}`,
		`{"tx_id":"d","block_height":1,"caller":"ST2VOTER","type":"vote.stake","payload":{"poll_id":1,"amount":0.5}}`,
		`{"tx_id":"e","block_height":1,"caller":"ST2VOTER","type":"poll.close","payload":{"poll_id":1}} {}`,
		`{"tx_id":"f","block_height":1,"caller":"ST2VOTER","type":"poll.close","payload":{"poll_id":1}}}`,
	}, "\n")
	out := &bytes.Buffer{}

	stream := pollProcessing.NewStream(n.processor, strings.NewReader(in), out)
	require.NoError(t, stream.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.JSONEq(t, `{"tx_id":"c","success":true,"ret":"9007199254740993"}`, lines[2])
	assert.JSONEq(t, `{"tx_id":"d","success":false,"error_code":"INVALID_PAYLOAD"}`, lines[3])
	assert.JSONEq(t, `{"tx_id":"","success":false,"error_code":"INVALID_PAYLOAD"}`, lines[4])
	assert.JSONEq(t, `{"tx_id":"","success":false,"error_code":"INVALID_PAYLOAD"}`, lines[5])
	assert.Equal(t, int64(9007199254740993), n.votes.GetStake(1, "ST2VOTER").Amount)
}

func TestStreamRunStopsOnCancel(t *testing.T) {
	n := newNode()
	in := `{"tx_id":"a","block_height":0,"caller":"ST1TEST","type":"poll.close","payload":{"poll_id":0}}`
	out := &bytes.Buffer{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := pollProcessing.NewStream(n.processor, strings.NewReader(in), out)
	assert.ErrorIs(t, stream.Run(ctx), context.Canceled)
	assert.Zero(t, out.Len())
}
