package db

import "vsc-polls/modules/config"

type dbConfig struct {
	DbURI  string `envconfig:"DB_URI" validate:"required"`
	DbName string `envconfig:"DB_NAME" validate:"required"`
}

type dbConfigStruct struct {
	*config.Config[dbConfig]
}

type DbConfig = *dbConfigStruct

func NewDbConfig(dataDir ...string) DbConfig {
	var dataDirPtr *string
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
	}
	return &dbConfigStruct{config.New(dbConfig{
		DbURI:  "mongodb://localhost:27017",
		DbName: "polls",
	}, dataDirPtr)}
}
