package polls

import (
	"context"
	a "vsc-polls/modules/aggregate"
	"vsc-polls/modules/db"

	"go.mongodb.org/mongo-driver/bson"
)

type PollsDb struct {
	*db.DbInstance
}

var _ a.Plugin = &PollsDb{}

func New(d db.Db, dbConf db.DbConfig) *PollsDb {
	return &PollsDb{db.NewDbInstance(d, dbConf.Get().DbName)}
}

// Nuke empties every collection in the database
func (db *PollsDb) Nuke() error {
	ctx := context.Background()

	colsNames, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return err
	}

	for _, colName := range colsNames {
		_, err := db.Collection(colName).DeleteMany(ctx, bson.M{})
		if err != nil {
			return err
		}
	}

	return nil
}
