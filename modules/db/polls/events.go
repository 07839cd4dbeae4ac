package polls

import (
	"context"
	"fmt"
	"vsc-polls/modules/db"
	eventSink "vsc-polls/modules/event-sink"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	KindPoll = "poll"
	KindVote = "vote"
)

type pollEventRecord struct {
	Kind  string              `bson:"kind"`
	Event eventSink.PollEvent `bson:",inline"`
}

type voteEventRecord struct {
	Kind  string              `bson:"kind"`
	Event eventSink.VoteEvent `bson:",inline"`
}

// Events appends every poll and vote event to the poll_events collection.
type Events struct {
	*db.Collection
}

var _ eventSink.Sink = &Events{}

func NewEvents(d *PollsDb) *Events {
	return &Events{db.NewCollection(d.DbInstance, "poll_events")}
}

func (e *Events) EmitPollEvent(event eventSink.PollEvent) error {
	_, err := e.InsertOne(context.Background(), pollEventRecord{KindPoll, event})
	if err != nil {
		return fmt.Errorf("failed to store poll event %d: %w", event.Id, err)
	}
	return nil
}

func (e *Events) EmitVoteEvent(event eventSink.VoteEvent) error {
	_, err := e.InsertOne(context.Background(), voteEventRecord{KindVote, event})
	if err != nil {
		return fmt.Errorf("failed to store vote event %d: %w", event.Id, err)
	}
	return nil
}

// Poll events of pollId in emission order
func (e *Events) GetPollEvents(ctx context.Context, pollId uint64) ([]eventSink.PollEvent, error) {
	opts := options.Find().SetSort(bson.M{"id": 1})
	cursor, err := e.Find(ctx, bson.M{"kind": KindPoll, "poll_id": pollId}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := make([]eventSink.PollEvent, 0)
	for cursor.Next(ctx) {
		record := pollEventRecord{}
		if err := cursor.Decode(&record); err != nil {
			return nil, err
		}
		results = append(results, record.Event)
	}
	return results, cursor.Err()
}

// Vote events of pollId in emission order
func (e *Events) GetVoteEvents(ctx context.Context, pollId uint64) ([]eventSink.VoteEvent, error) {
	opts := options.Find().SetSort(bson.M{"id": 1})
	cursor, err := e.Find(ctx, bson.M{"kind": KindVote, "poll_id": pollId}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := make([]eventSink.VoteEvent, 0)
	for cursor.Next(ctx) {
		record := voteEventRecord{}
		if err := cursor.Decode(&record); err != nil {
			return nil, err
		}
		results = append(results, record.Event)
	}
	return results, cursor.Err()
}
