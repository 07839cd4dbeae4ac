package polls

import (
	"context"
	"fmt"
	"vsc-polls/modules/db"
	ledgerTransfer "vsc-polls/modules/ledger-transfer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Transfers stores transfer intents for the settlement layer. Intent ids are unique; a
// second intent with a known id is rejected, never merged.
type Transfers struct {
	*db.Collection
}

var _ ledgerTransfer.Sink = &Transfers{}

func NewTransfers(d *PollsDb) *Transfers {
	return &Transfers{db.NewCollection(d.DbInstance, "ledger_transfers").WithIndexes(mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})}
}

func (t *Transfers) Transfer(intent ledgerTransfer.TransferIntent) error {
	if intent.Amount < 0 {
		return fmt.Errorf("invalid amount %d", intent.Amount)
	}
	_, err := t.InsertOne(context.Background(), intent)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ledgerTransfer.ErrDuplicateId, intent.Id)
		}
		return fmt.Errorf("failed to store transfer %s: %w", intent.Id, err)
	}
	return nil
}

func (t *Transfers) GetTransfers(ctx context.Context, pollId uint64) ([]ledgerTransfer.TransferIntent, error) {
	opts := options.Find().SetSort(bson.M{"block_height": 1})
	cursor, err := t.Find(ctx, bson.M{"poll_id": pollId}, opts)
	if err != nil {
		return nil, err
	}
	results := make([]ledgerTransfer.TransferIntent, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
