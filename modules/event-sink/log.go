package eventSink

import "vsc-polls/lib/logger"

// Log writes every event to a logger at debug level. It never fails, so it belongs at the
// end of a Multi.
type Log struct {
	log logger.Logger
}

var _ Sink = Log{}

func NewLog(log logger.Logger) Log {
	return Log{log}
}

func (l Log) EmitPollEvent(event PollEvent) error {
	l.log.Debug("poll event",
		"id", event.Id,
		"poll_id", event.PollId,
		"type", event.Type,
		"actor", event.Actor,
		"block_height", event.BlockHeight,
	)
	return nil
}

func (l Log) EmitVoteEvent(event VoteEvent) error {
	l.log.Debug("vote event",
		"id", event.Id,
		"poll_id", event.PollId,
		"voter", event.Voter,
		"option_id", event.OptionId,
		"weight", event.Weight,
		"block_height", event.BlockHeight,
	)
	return nil
}
