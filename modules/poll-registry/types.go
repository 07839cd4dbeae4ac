package pollRegistry

import "vsc-polls/modules/common"

type Poll struct {
	Id            uint64           `json:"id" bson:"id"`
	Title         string           `json:"title" bson:"title"`
	Description   string           `json:"description" bson:"description"`
	Creator       common.Principal `json:"creator" bson:"creator"`
	StartTime     uint64           `json:"start_time" bson:"start_time"`
	EndTime       uint64           `json:"end_time" bson:"end_time"`
	IsActive      bool             `json:"is_active" bson:"is_active"`
	StakeRequired int64            `json:"stake_required" bson:"stake_required"`
	PollType      common.PollType  `json:"poll_type" bson:"poll_type"`
}

// Latest update applied to a poll. Each update overwrites the previous one.
type PollUpdate struct {
	UpdateTitle       string           `json:"update_title" bson:"update_title"`
	UpdateDescription string           `json:"update_description" bson:"update_description"`
	UpdateTimestamp   uint64           `json:"update_timestamp" bson:"update_timestamp"`
	Updater           common.Principal `json:"updater" bson:"updater"`
}

type CreatePollArgs struct {
	Title         string
	Description   string
	Duration      int64
	StakeRequired int64
	PollType      common.PollType
}
