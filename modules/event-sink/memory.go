package eventSink

import "sync"

// In memory oplog of emitted events
type Memory struct {
	mtx        sync.Mutex
	pollEvents []PollEvent
	voteEvents []VoteEvent
}

var _ Sink = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		pollEvents: make([]PollEvent, 0),
		voteEvents: make([]VoteEvent, 0),
	}
}

func (m *Memory) EmitPollEvent(event PollEvent) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.pollEvents = append(m.pollEvents, event)
	return nil
}

func (m *Memory) EmitVoteEvent(event VoteEvent) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.voteEvents = append(m.voteEvents, event)
	return nil
}

func (m *Memory) PollEvents() []PollEvent {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	out := make([]PollEvent, len(m.pollEvents))
	copy(out, m.pollEvents)
	return out
}

func (m *Memory) VoteEvents() []VoteEvent {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	out := make([]VoteEvent, len(m.voteEvents))
	copy(out, m.voteEvents)
	return out
}

// Flush clears the oplog
func (m *Memory) Flush() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.pollEvents = make([]PollEvent, 0)
	m.voteEvents = make([]VoteEvent, 0)
}
