package eventSink

// Multi forwards every event to each sink in order and stops at the first failure.
// Sinks before the failing one keep the event.
type Multi []Sink

var _ Sink = Multi{}

func (m Multi) EmitPollEvent(event PollEvent) error {
	for _, s := range m {
		if err := s.EmitPollEvent(event); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) EmitVoteEvent(event VoteEvent) error {
	for _, s := range m {
		if err := s.EmitVoteEvent(event); err != nil {
			return err
		}
	}
	return nil
}
