package common

// Reserved burn principal. Never accepted as an authority, creator or ban target.
var NULL_PRINCIPAL Principal = "SP000000000000000000002Q6VF78"

// Account holding staked funds until they are withdrawn
var ESCROW_ACCOUNT Principal = "system:poll_escrow"

var STAKE_ASSET = "hbd"

var MAX_POLLS int64 = 1000

var MAX_VOTES_PER_POLL int64 = 10_000

var MIN_STAKE_REQUIRED int64 = 0

const (
	MIN_VOTE_WEIGHT uint8 = 1
	MAX_VOTE_WEIGHT uint8 = 10
)

var SNAPSHOT_SCHEDULE = "@every 1m"

const (
	MAX_TITLE_LENGTH       = 100
	MAX_DESCRIPTION_LENGTH = 500
)
