package db

import (
	"context"
	"fmt"
	a "vsc-polls/modules/aggregate"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is a named collection of a DbInstance. It is bound, and its indexes created,
// on Init, after the instance itself.
type Collection struct {
	*mongo.Collection

	db      *DbInstance
	name    string
	indexes []mongo.IndexModel
	opts    []*options.CollectionOptions
}

var _ a.Plugin = &Collection{}

func NewCollection(db *DbInstance, name string, opts ...*options.CollectionOptions) *Collection {
	return &Collection{db: db, name: name, opts: opts}
}

// WithIndexes adds indexes to create on Init. Creating an existing index is a no-op on the
// server.
func (c *Collection) WithIndexes(models ...mongo.IndexModel) *Collection {
	c.indexes = append(c.indexes, models...)
	return c
}

func (c *Collection) Init() error {
	c.Collection = c.db.Collection(c.name, c.opts...)
	if len(c.indexes) == 0 {
		return nil
	}
	if _, err := c.Indexes().CreateMany(context.Background(), c.indexes); err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", c.name, err)
	}
	return nil
}

func (c *Collection) Start() *promise.Promise[any] {
	return resolved()
}

func (c *Collection) Stop() error {
	return nil
}
