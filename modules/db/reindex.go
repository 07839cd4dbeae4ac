package db

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"vsc-polls/lib/logger"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Bump to drop every derived collection on the next start
var REINDEX_ID = 1

// Audit collections. Never cleared by a reindex.
var IMMUTABLE_COLLECTIONS = []string{
	"poll_events",
	"ledger_transfers",
}

const METADATA_COLLECTION = "metadata"

type DbReindex struct {
	*DbInstance
	log logger.Logger
}

func NewReindex(db *DbInstance) *DbReindex {
	return &DbReindex{db, logger.PrefixedLogger{Prefix: "db-reindex"}}
}

func (dbr *DbReindex) Init() error {
	ctx := context.Background()
	col := dbr.Collection(METADATA_COLLECTION)

	result := SearchResult{}
	err := col.FindOne(ctx, bson.M{"type": "metadata"}).Decode(&result)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to read db metadata: %w", err)
	}

	if result.ReindexId != nil && *result.ReindexId == uint64(REINDEX_ID) {
		return nil
	}

	dbr.log.Info("reindexing database", "reindex_id", REINDEX_ID)
	cols, err := dbr.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return err
	}
	for _, name := range cols {
		if name == METADATA_COLLECTION || slices.Contains(IMMUTABLE_COLLECTIONS, name) {
			continue
		}
		if _, err := dbr.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
	}

	err = col.FindOneAndUpdate(ctx, bson.M{
		"type": "metadata",
	}, bson.M{
		"$set": bson.M{"reindex_id": REINDEX_ID},
	}, options.FindOneAndUpdate().SetUpsert(true)).Err()
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	return nil
}

func (dbr *DbReindex) Start() *promise.Promise[any] {
	return resolved()
}

func (dbr *DbReindex) Stop() error {
	return nil
}

type SearchResult struct {
	ReindexId *uint64 `json:"reindex_id,omitempty" bson:"reindex_id,omitempty"`
}
