package pollProcessing_test

import (
	"encoding/json"
	"strings"
	"testing"
	"vsc-polls/modules/common"
	eventSink "vsc-polls/modules/event-sink"
	ledgerTransfer "vsc-polls/modules/ledger-transfer"
	pollProcessing "vsc-polls/modules/poll-processing"
	pollRegistry "vsc-polls/modules/poll-registry"
	voteLedger "vsc-polls/modules/vote-ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	polls     *pollRegistry.PollRegistry
	votes     *voteLedger.VoteLedger
	processor *pollProcessing.Processor
	events    *eventSink.Memory
}

func newNode() node {
	events := eventSink.NewMemory()
	polls := pollRegistry.New(events)
	votes := voteLedger.New(polls, events, ledgerTransfer.NewMemory())
	return node{polls, votes, pollProcessing.New(polls, votes), events}
}

func self(height uint64, caller common.Principal) pollProcessing.TxSelf {
	return pollProcessing.TxSelf{TxId: "tx", BlockHeight: height, Caller: caller}
}

// Payloads arrive as JSON, so numbers decode as float64
func payload(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

// Keeps numbers as json.Number, the way Stream hands them over
func exactPayload(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&out))
	return out
}

func createPoll(t *testing.T, n node, height uint64) pollProcessing.TxResult {
	t.Helper()
	return n.processor.Execute(self(height, "ST1TEST"), pollProcessing.Op{
		Type: "poll.create",
		Payload: payload(t, `{
			"title": "Best Artist",
			"description": "Vote for your favorite artist",
			"duration": 100,
			"stake_required": 50,
			"poll_type": "standard"
		}`),
	})
}

func TestCreatePoll(t *testing.T) {
	n := newNode()

	res := createPoll(t, n, 0)
	assert.Equal(t, pollProcessing.TxResult{Success: true, Ret: "0"}, res)

	poll := n.polls.GetPoll(0).Unwrap()
	assert.Equal(t, uint64(100), poll.EndTime)
	assert.Equal(t, int64(50), poll.StakeRequired)
	assert.Equal(t, common.PollTypeStandard, poll.PollType)
}

func TestMissingFieldsMapToSymbols(t *testing.T) {
	n := newNode()

	tests := []struct {
		name string
		op   pollProcessing.Op
		want common.ErrorSymbol
	}{
		{"create without title", pollProcessing.Op{Type: "poll.create", Payload: payload(t, `{"description":"d","duration":1,"stake_required":0,"poll_type":"standard"}`)}, common.ErrInvalidTitle},
		{"create without anything", pollProcessing.Op{Type: "poll.create"}, common.ErrInvalidTitle},
		{"create without duration", pollProcessing.Op{Type: "poll.create", Payload: payload(t, `{"title":"t","description":"d","stake_required":0,"poll_type":"standard"}`)}, common.ErrInvalidDuration},
		{"create without type", pollProcessing.Op{Type: "poll.create", Payload: payload(t, `{"title":"t","description":"d","duration":1,"stake_required":0}`)}, common.ErrInvalidPollType},
		{"cast without weight", pollProcessing.Op{Type: "vote.cast", Payload: payload(t, `{"poll_id":1,"option_id":1}`)}, common.ErrInvalidVoteWeight},
		{"ban without voter", pollProcessing.Op{Type: "vote.ban", Payload: payload(t, `{}`)}, common.ErrInvalidVoter},
		{"set max votes without max", pollProcessing.Op{Type: "vote.set_max_votes", Payload: payload(t, `{}`)}, common.ErrInvalidMaxVotes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := n.processor.Execute(self(0, "ST1TEST"), tt.op)
			assert.Equal(t, pollProcessing.TxResult{Success: false, ErrorCode: tt.want}, res)
		})
	}
	assert.Equal(t, uint64(0), n.polls.GetPollCount())
}

func TestMalformedPayloads(t *testing.T) {
	n := newNode()

	tests := []struct {
		name string
		op   pollProcessing.Op
	}{
		{"unknown type", pollProcessing.Op{Type: "poll.delete", Payload: payload(t, `{"poll_id":0}`)}},
		{"wrong field type", pollProcessing.Op{Type: "poll.close", Payload: payload(t, `{"poll_id":"zero"}`)}},
		{"negative id", pollProcessing.Op{Type: "poll.close", Payload: payload(t, `{"poll_id":-1}`)}},
		{"unknown field", pollProcessing.Op{Type: "poll.close", Payload: payload(t, `{"poll_id":0,"force":true}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := n.processor.Execute(self(0, "ST1TEST"), tt.op)
			assert.Equal(t, common.ErrInvalidPayload, res.ErrorCode)
			assert.False(t, res.Success)
		})
	}
}

func TestInexactNumbersRejected(t *testing.T) {
	n := newNode()
	require.True(t, createPoll(t, n, 0).Success)
	require.True(t, createPoll(t, n, 0).Success)
	require.True(t, n.votes.AddOption(self(0, "ST1TEST").Env(), 1, 1).IsOk())

	tests := []struct {
		name    string
		payload map[string]interface{}
		opType  string
	}{
		{"fractional amount", payload(t, `{"poll_id":1,"amount":10.7}`), "vote.stake"},
		{"fractional poll id", payload(t, `{"poll_id":1.9,"amount":10}`), "vote.stake"},
		{"fractional weight", payload(t, `{"poll_id":1,"option_id":1,"weight":10.99}`), "vote.cast"},
		{"float past 2^53", payload(t, `{"poll_id":1,"amount":9007199254740993}`), "vote.stake"},
		{"fractional number", exactPayload(t, `{"poll_id":1,"amount":10.7}`), "vote.stake"},
		{"number past int64", exactPayload(t, `{"poll_id":1,"amount":9223372036854775808}`), "vote.stake"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := n.processor.Execute(self(1, "ST2VOTER"), pollProcessing.Op{Type: tt.opType, Payload: tt.payload})
			assert.Equal(t, pollProcessing.TxResult{ErrorCode: common.ErrInvalidPayload}, res)
		})
	}

	assert.Equal(t, int64(0), n.votes.GetStake(1, "ST2VOTER").Amount)
	assert.Equal(t, uint64(0), n.votes.GetVoteCount())
}

func TestExactNumbersAccepted(t *testing.T) {
	n := newNode()
	require.True(t, createPoll(t, n, 0).Success)
	require.True(t, createPoll(t, n, 0).Success)

	// 2^53+1 survives as json.Number
	res := n.processor.Execute(self(1, "ST2VOTER"), pollProcessing.Op{
		Type:    "vote.stake",
		Payload: exactPayload(t, `{"poll_id":1,"amount":9007199254740993}`),
	})
	assert.Equal(t, pollProcessing.TxResult{Success: true, Ret: "9007199254740993"}, res)

	// integral floats are fine
	res = n.processor.Execute(self(2, "ST2VOTER"), pollProcessing.Op{
		Type:    "vote.stake",
		Payload: payload(t, `{"poll_id":1,"amount":7.0}`),
	})
	assert.Equal(t, pollProcessing.TxResult{Success: true, Ret: "9007199254741000"}, res)
}

func TestZeroValuesReachTheManagers(t *testing.T) {
	n := newNode()

	// present but empty: the registry decides
	res := n.processor.Execute(self(0, "ST1TEST"), pollProcessing.Op{
		Type:    "poll.create",
		Payload: payload(t, `{"title":"","description":"d","duration":0,"stake_required":0,"poll_type":"standard"}`),
	})
	assert.Equal(t, common.ErrInvalidTitle, res.ErrorCode)

	res = n.processor.Execute(self(0, "ST1TEST"), pollProcessing.Op{
		Type:    "poll.create",
		Payload: payload(t, `{"title":"t","description":"d","duration":0,"stake_required":0,"poll_type":"standard"}`),
	})
	assert.Equal(t, common.ErrInvalidDuration, res.ErrorCode)
}

func TestVotingFlow(t *testing.T) {
	n := newNode()
	require.True(t, createPoll(t, n, 0).Success)
	require.True(t, createPoll(t, n, 0).Success)

	steps := []struct {
		caller common.Principal
		op     pollProcessing.Op
		want   pollProcessing.TxResult
	}{
		{"ST1TEST", pollProcessing.Op{Type: "vote.add_option", Payload: payload(t, `{"poll_id":1,"option_id":1}`)}, pollProcessing.TxResult{Success: true}},
		{"ST2VOTER", pollProcessing.Op{Type: "vote.stake", Payload: payload(t, `{"poll_id":1,"amount":60}`)}, pollProcessing.TxResult{Success: true, Ret: "60"}},
		{"ST2VOTER", pollProcessing.Op{Type: "vote.cast", Payload: payload(t, `{"poll_id":1,"option_id":1,"weight":4}`)}, pollProcessing.TxResult{Success: true, Ret: "0"}},
		{"ST2VOTER", pollProcessing.Op{Type: "vote.cast", Payload: payload(t, `{"poll_id":1,"option_id":1,"weight":4}`)}, pollProcessing.TxResult{ErrorCode: common.ErrAlreadyVoted}},
		{"ST3OTHER", pollProcessing.Op{Type: "vote.cast", Payload: payload(t, `{"poll_id":1,"option_id":1,"weight":300}`)}, pollProcessing.TxResult{ErrorCode: common.ErrInvalidVoteWeight}},
		{"ST2VOTER", pollProcessing.Op{Type: "vote.withdraw", Payload: payload(t, `{"poll_id":1,"amount":60}`)}, pollProcessing.TxResult{ErrorCode: common.ErrPollNotActive}},
		{"ST1TEST", pollProcessing.Op{Type: "poll.close", Payload: payload(t, `{"poll_id":1}`)}, pollProcessing.TxResult{Success: true}},
		{"ST2VOTER", pollProcessing.Op{Type: "vote.withdraw", Payload: payload(t, `{"poll_id":1,"amount":20}`)}, pollProcessing.TxResult{Success: true, Ret: "40"}},
	}

	for i, step := range steps {
		res := n.processor.Execute(self(uint64(10+i), step.caller), step.op)
		assert.Equal(t, step.want, res, "step %d (%s)", i, step.op.Type)
	}

	assert.Equal(t, uint64(4), n.votes.GetOption(1, 1).Unwrap().VoteCount)
	assert.Equal(t, uint64(17), n.processor.LastHeight())
}

func TestAuthorityOps(t *testing.T) {
	n := newNode()
	require.True(t, createPoll(t, n, 0).Success)
	require.True(t, createPoll(t, n, 0).Success)

	run := func(caller common.Principal, opType string, raw string) pollProcessing.TxResult {
		return n.processor.Execute(self(1, caller), pollProcessing.Op{Type: opType, Payload: payload(t, raw)})
	}

	assert.True(t, run("ST1TEST", "poll.set_authority", `{"principal":"ST9AUTH"}`).Success)
	assert.True(t, run("ST1TEST", "vote.set_authority", `{"principal":"ST9AUTH"}`).Success)
	assert.Equal(t, common.ErrNotAuthorized, run("ST1TEST", "vote.set_authority", `{"principal":"ST1TEST"}`).ErrorCode)

	assert.True(t, run("ST9AUTH", "poll.set_max_polls", `{"max":5}`).Success)
	assert.Equal(t, int64(5), n.polls.GetMaxPolls())

	assert.True(t, run("ST9AUTH", "vote.set_max_votes", `{"max":9}`).Success)
	assert.True(t, run("ST9AUTH", "vote.set_min_stake", `{"min":3}`).Success)
	assert.Equal(t, int64(9), n.votes.GetMaxVotesPerPoll())
	assert.Equal(t, int64(3), n.votes.GetMinStakeRequired())

	assert.True(t, run("ST9AUTH", "vote.ban", `{"voter":"ST2VOTER"}`).Success)
	assert.True(t, n.votes.IsBanned("ST2VOTER"))
	assert.True(t, run("ST9AUTH", "vote.unban", `{"voter":"ST2VOTER"}`).Success)
	assert.False(t, n.votes.IsBanned("ST2VOTER"))

	assert.True(t, run("ST9AUTH", "vote.set_poll_type", `{"poll_id":1,"poll_type":"premium"}`).Success)
	assert.Equal(t, common.PollTypePremium, n.votes.GetPollType(1).Unwrap())

	assert.True(t, run("ST1TEST", "poll.update", `{"poll_id":1,"title":"New","description":"Newer"}`).Success)
	assert.Equal(t, "New", n.polls.GetPoll(1).Unwrap().Title)
}
