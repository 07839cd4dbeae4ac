package polls

import (
	"context"
	"errors"
	"fmt"
	"vsc-polls/modules/db"
	pollRegistry "vsc-polls/modules/poll-registry"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Snapshots mirrors the latest known state of every poll. Derived data; cleared on reindex.
type Snapshots struct {
	*db.Collection
}

func NewSnapshots(d *PollsDb) *Snapshots {
	return &Snapshots{db.NewCollection(d.DbInstance, "poll_snapshots")}
}

func (s *Snapshots) PutPolls(ctx context.Context, polls []pollRegistry.Poll) error {
	for _, poll := range polls {
		findUpdateOpts := options.FindOneAndUpdate().SetUpsert(true)
		err := s.FindOneAndUpdate(ctx, bson.M{
			"id": poll.Id,
		}, bson.M{
			"$set": poll,
		}, findUpdateOpts).Err()
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("failed to store poll %d: %w", poll.Id, err)
		}
	}
	return nil
}

// GetPoll returns nil if the poll was never snapshotted
func (s *Snapshots) GetPoll(ctx context.Context, pollId uint64) (*pollRegistry.Poll, error) {
	poll := pollRegistry.Poll{}
	err := s.FindOne(ctx, bson.M{"id": pollId}).Decode(&poll)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &poll, nil
}
