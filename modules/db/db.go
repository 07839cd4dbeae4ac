package db

import (
	"context"
	"fmt"
	"time"
	"vsc-polls/lib/logger"
	a "vsc-polls/modules/aggregate"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

type Db interface {
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
}

type db struct {
	conf DbConfig
	log  logger.Logger
	*mongo.Client
}

var _ a.Plugin = &db{}
var _ Db = &db{}

func New(conf DbConfig) *db {
	return &db{conf: conf, log: logger.PrefixedLogger{Prefix: "db"}}
}

// Init creates the client. The driver connects lazily so collections can bind to it
// before Start.
func (db *db) Init() error {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(db.conf.Get().DbURI))
	if err != nil {
		return fmt.Errorf("failed to create mongo client: %w", err)
	}
	db.Client = client
	return nil
}

// Start resolves once the server answers a ping.
func (db *db) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := db.Ping(ctx, readpref.Primary()); err != nil {
			reject(fmt.Errorf("failed to reach mongo: %w", err))
			return
		}
		db.log.Info("connected", "db", db.conf.Get().DbName)
		resolve(nil)
	})
}

func (db *db) Stop() error {
	if db.Client == nil {
		return nil
	}
	return db.Disconnect(context.Background())
}
