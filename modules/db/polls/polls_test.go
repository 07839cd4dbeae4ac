package polls_test

import (
	"context"
	"testing"
	"vsc-polls/modules/common"
	"vsc-polls/modules/db"
	"vsc-polls/modules/db/polls"
	eventSink "vsc-polls/modules/event-sink"
	ledgerTransfer "vsc-polls/modules/ledger-transfer"
	pollRegistry "vsc-polls/modules/poll-registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type collections struct {
	events    *polls.Events
	transfers *polls.Transfers
	snapshots *polls.Snapshots
}

func setup(mt *mtest.T) collections {
	pdb := polls.New(mt.Client, db.NewDbConfig(mt.TempDir()))
	require.NoError(mt, pdb.Init())

	c := collections{
		polls.NewEvents(pdb),
		polls.NewTransfers(pdb),
		polls.NewSnapshots(pdb),
	}
	require.NoError(mt, c.events.Init())
	// createIndexes
	mt.AddMockResponses(mtest.CreateSuccessResponse())
	require.NoError(mt, c.transfers.Init())
	require.NoError(mt, c.snapshots.Init())
	return c
}

func TestEvents(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("emit poll event", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := c.events.EmitPollEvent(eventSink.PollEvent{
			Id: 0, PollId: 1, Type: eventSink.EventCreated, Actor: "ST1TEST", BlockHeight: 5,
		})
		assert.NoError(mt, err)
	})

	mt.Run("emit vote event", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := c.events.EmitVoteEvent(eventSink.VoteEvent{
			Id: 3, PollId: 1, Voter: "ST2VOTER", OptionId: 1, Weight: 4, BlockHeight: 50,
		})
		assert.NoError(mt, err)
	})

	mt.Run("write error surfaces", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := c.events.EmitPollEvent(eventSink.PollEvent{Id: 0, PollId: 1, Type: eventSink.EventClosed})
		assert.Error(mt, err)
	})

	mt.Run("get poll events", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "polls.poll_events", mtest.FirstBatch,
			bson.D{
				{Key: "kind", Value: polls.KindPoll},
				{Key: "id", Value: int64(0)},
				{Key: "poll_id", Value: int64(1)},
				{Key: "type", Value: "created"},
				{Key: "actor", Value: "ST1TEST"},
				{Key: "block_height", Value: int64(5)},
			},
			bson.D{
				{Key: "kind", Value: polls.KindPoll},
				{Key: "id", Value: int64(2)},
				{Key: "poll_id", Value: int64(1)},
				{Key: "type", Value: "closed"},
				{Key: "actor", Value: "ST1TEST"},
				{Key: "block_height", Value: int64(9)},
			},
		))

		events, err := c.events.GetPollEvents(context.Background(), 1)
		require.NoError(mt, err)
		assert.Equal(mt, []eventSink.PollEvent{
			{Id: 0, PollId: 1, Type: eventSink.EventCreated, Actor: "ST1TEST", BlockHeight: 5},
			{Id: 2, PollId: 1, Type: eventSink.EventClosed, Actor: "ST1TEST", BlockHeight: 9},
		}, events)
	})

	mt.Run("get vote events", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "polls.poll_events", mtest.FirstBatch,
			bson.D{
				{Key: "kind", Value: polls.KindVote},
				{Key: "id", Value: int64(0)},
				{Key: "poll_id", Value: int64(1)},
				{Key: "voter", Value: "ST2VOTER"},
				{Key: "option_id", Value: int64(1)},
				{Key: "weight", Value: int32(4)},
				{Key: "block_height", Value: int64(50)},
			},
		))

		events, err := c.events.GetVoteEvents(context.Background(), 1)
		require.NoError(mt, err)
		assert.Equal(mt, []eventSink.VoteEvent{
			{Id: 0, PollId: 1, Voter: "ST2VOTER", OptionId: 1, Weight: 4, BlockHeight: 50},
		}, events)
	})
}

func TestTransfers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	intent := ledgerTransfer.TransferIntent{
		Id:          ledgerTransfer.IntentId(ledgerTransfer.TypeStake, 1, "ST2VOTER", 5, 0),
		From:        "ST2VOTER",
		To:          common.ESCROW_ACCOUNT,
		Amount:      40,
		Asset:       common.STAKE_ASSET,
		PollId:      1,
		Type:        ledgerTransfer.TypeStake,
		BlockHeight: 5,
	}

	mt.Run("insert", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, c.transfers.Transfer(intent))
	})

	mt.Run("duplicate id rejected", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: polls.ledger_transfers index: id_1",
		}))

		err := c.transfers.Transfer(intent)
		assert.ErrorIs(mt, err, ledgerTransfer.ErrDuplicateId)
	})

	mt.Run("index creation failure fails init", func(mt *mtest.T) {
		pdb := polls.New(mt.Client, db.NewDbConfig(mt.TempDir()))
		require.NoError(mt, pdb.Init())
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "not authorized",
			Name:    "Unauthorized",
		}))

		assert.Error(mt, polls.NewTransfers(pdb).Init())
	})

	mt.Run("negative amount never reaches the db", func(mt *mtest.T) {
		c := setup(mt)
		bad := intent
		bad.Amount = -1
		assert.Error(mt, c.transfers.Transfer(bad))
	})

	mt.Run("command error surfaces", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Message: "shutdown in progress",
			Name:    "ShutdownInProgress",
		}))

		assert.Error(mt, c.transfers.Transfer(intent))
	})

	mt.Run("get transfers", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "polls.ledger_transfers", mtest.FirstBatch,
			bson.D{
				{Key: "id", Value: intent.Id},
				{Key: "from", Value: "ST2VOTER"},
				{Key: "to", Value: common.ESCROW_ACCOUNT.String()},
				{Key: "amount", Value: int64(40)},
				{Key: "asset", Value: common.STAKE_ASSET},
				{Key: "poll_id", Value: int64(1)},
				{Key: "type", Value: ledgerTransfer.TypeStake},
				{Key: "block_height", Value: int64(5)},
			},
		))

		transfers, err := c.transfers.GetTransfers(context.Background(), 1)
		require.NoError(mt, err)
		assert.Equal(mt, []ledgerTransfer.TransferIntent{intent}, transfers)
	})
}

func TestSnapshots(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	poll := pollRegistry.Poll{
		Id:            1,
		Title:         "Best Artist",
		Description:   "Vote for your favorite artist",
		Creator:       "ST1TEST",
		StartTime:     0,
		EndTime:       100,
		IsActive:      true,
		StakeRequired: 50,
		PollType:      common.PollTypeStandard,
	}

	mt.Run("put polls", func(mt *mtest.T) {
		c := setup(mt)
		for i := 0; i < 2; i++ {
			mt.AddMockResponses(mtest.CreateSuccessResponse(
				bson.E{Key: "value", Value: bson.D{{Key: "id", Value: int64(i)}}},
			))
		}

		second := poll
		second.Id = 2
		assert.NoError(mt, c.snapshots.PutPolls(context.Background(), []pollRegistry.Poll{poll, second}))
	})

	mt.Run("get poll", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "polls.poll_snapshots", mtest.FirstBatch,
			bson.D{
				{Key: "id", Value: int64(1)},
				{Key: "title", Value: poll.Title},
				{Key: "description", Value: poll.Description},
				{Key: "creator", Value: "ST1TEST"},
				{Key: "start_time", Value: int64(0)},
				{Key: "end_time", Value: int64(100)},
				{Key: "is_active", Value: true},
				{Key: "stake_required", Value: int64(50)},
				{Key: "poll_type", Value: "standard"},
			},
		))

		got, err := c.snapshots.GetPoll(context.Background(), 1)
		require.NoError(mt, err)
		require.NotNil(mt, got)
		assert.Equal(mt, poll, *got)
	})

	mt.Run("missing poll", func(mt *mtest.T) {
		c := setup(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "polls.poll_snapshots", mtest.FirstBatch))

		got, err := c.snapshots.GetPoll(context.Background(), 7)
		assert.NoError(mt, err)
		assert.Nil(mt, got)
	})
}
