package common

import (
	"fmt"
	"vsc-polls/modules/config"
)

type pollsConfig struct {
	// Optional authority installed into both managers at startup
	Authority        Principal `envconfig:"AUTHORITY"`
	EscrowAccount    Principal `envconfig:"ESCROW_ACCOUNT" validate:"required"`
	MaxPolls         int64     `envconfig:"MAX_POLLS" validate:"gt=0"`
	MaxVotesPerPoll  int64     `envconfig:"MAX_VOTES_PER_POLL" validate:"gt=0"`
	MinStakeRequired int64     `envconfig:"MIN_STAKE_REQUIRED" validate:"gte=0"`
	SnapshotSchedule string    `envconfig:"SNAPSHOT_SCHEDULE" validate:"required"`
	CheckpointDir    string    `envconfig:"CHECKPOINT_DIR" validate:"required"`
}

type pollsConfigStruct struct {
	*config.Config[pollsConfig]
}

type PollsConfig = *pollsConfigStruct

func NewPollsConfig(dataDir ...string) PollsConfig {
	var dataDirPtr *string
	checkpointDir := config.DATA_DIR + "/checkpoints"
	if len(dataDir) > 0 {
		dataDirPtr = &dataDir[0]
		checkpointDir = dataDir[0] + "/checkpoints"
	}

	return &pollsConfigStruct{config.New(
		pollsConfig{
			EscrowAccount:    ESCROW_ACCOUNT,
			MaxPolls:         MAX_POLLS,
			MaxVotesPerPoll:  MAX_VOTES_PER_POLL,
			MinStakeRequired: MIN_STAKE_REQUIRED,
			SnapshotSchedule: SNAPSHOT_SCHEDULE,
			CheckpointDir:    checkpointDir,
		},
		dataDirPtr,
	)}
}

func (pc *pollsConfigStruct) SetAuthority(authority Principal) error {
	if authority.IsNull() {
		return fmt.Errorf("reserved principal cannot be the authority")
	}
	return pc.Update(func(c *pollsConfig) {
		c.Authority = authority
	})
}

func (pc *pollsConfigStruct) SetSnapshotSchedule(schedule string) error {
	return pc.Update(func(c *pollsConfig) {
		c.SnapshotSchedule = schedule
	})
}
