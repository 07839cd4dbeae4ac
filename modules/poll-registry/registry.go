package pollRegistry

import (
	"math"
	"sync"
	"unicode/utf8"
	"vsc-polls/lib/logger"
	"vsc-polls/modules/common"
	eventSink "vsc-polls/modules/event-sink"

	"github.com/JustinKnueppel/go-result"
	"github.com/moznion/go-optional"
)

// PollRegistry owns poll records and their lifecycle: open -> updated* -> closed.
//
// Every mutating call is validated completely before anything is changed, and the created /
// updated / closed event is emitted before the mutation is applied. A failing event sink
// therefore leaves the registry untouched.
type PollRegistry struct {
	mtx sync.Mutex

	polls   map[uint64]Poll
	updates map[uint64]PollUpdate

	pollCounter  uint64
	eventCounter uint64
	maxPolls     int64
	authority    common.WriteOnce[common.Principal]

	events eventSink.Sink
	log    logger.Logger
}

type Option func(*PollRegistry)

func WithMaxPolls(max int64) Option {
	return func(pr *PollRegistry) {
		pr.maxPolls = max
	}
}

func WithLogger(log logger.Logger) Option {
	return func(pr *PollRegistry) {
		pr.log = log
	}
}

func New(events eventSink.Sink, opts ...Option) *PollRegistry {
	pr := &PollRegistry{
		polls:    make(map[uint64]Poll),
		updates:  make(map[uint64]PollUpdate),
		maxPolls: common.MAX_POLLS,
		events:   events,
		log:      logger.PrefixedLogger{Prefix: "poll-registry"},
	}
	for _, opt := range opts {
		opt(pr)
	}
	return pr
}

func (pr *PollRegistry) SetAuthorityPrincipal(env common.Environment, principal common.Principal) result.Result[struct{}] {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()

	if principal.IsNull() {
		return common.Fail[struct{}](common.ErrInvalidAuthority)
	}
	if !pr.authority.Set(principal) {
		return common.Fail[struct{}](common.ErrNotAuthorized)
	}
	pr.log.Info("authority set", "authority", principal, "caller", env.Caller)
	return result.Ok(struct{}{})
}

// SetMaxPolls requires the caller to be the configured authority, not merely that an
// authority exists.
func (pr *PollRegistry) SetMaxPolls(env common.Environment, max int64) result.Result[struct{}] {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()

	if max <= 0 {
		return common.Fail[struct{}](common.ErrMaxPollsExceeded)
	}
	if !common.IsAuthority(&pr.authority, env.Caller) {
		return common.Fail[struct{}](common.ErrNotAuthorized)
	}
	pr.maxPolls = max
	return result.Ok(struct{}{})
}

func (pr *PollRegistry) CreatePoll(env common.Environment, args CreatePollArgs) result.Result[uint64] {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()

	if pr.pollCounter >= uint64(pr.maxPolls) {
		return common.Fail[uint64](common.ErrMaxPollsExceeded)
	}
	if !validTitle(args.Title) {
		return common.Fail[uint64](common.ErrInvalidTitle)
	}
	if !validDescription(args.Description) {
		return common.Fail[uint64](common.ErrInvalidDescription)
	}
	if args.Duration <= 0 || uint64(args.Duration) > math.MaxUint64-env.BlockHeight {
		return common.Fail[uint64](common.ErrInvalidDuration)
	}
	if args.StakeRequired < 0 {
		return common.Fail[uint64](common.ErrInvalidStakeRequirement)
	}
	if !args.PollType.Valid() {
		return common.Fail[uint64](common.ErrInvalidPollType)
	}
	if env.Caller.IsNull() {
		return common.Fail[uint64](common.ErrInvalidCreator)
	}

	pollId := pr.pollCounter
	if err := pr.emit(env, pollId, eventSink.EventCreated); err != nil {
		return common.Fail[uint64](common.ErrEmitEventFailed)
	}

	pr.polls[pollId] = Poll{
		Id:            pollId,
		Title:         args.Title,
		Description:   args.Description,
		Creator:       env.Caller,
		StartTime:     env.BlockHeight,
		EndTime:       env.BlockHeight + uint64(args.Duration),
		IsActive:      true,
		StakeRequired: args.StakeRequired,
		PollType:      args.PollType,
	}
	pr.pollCounter++

	pr.log.Debug("poll created", "poll_id", pollId, "creator", env.Caller, "block_height", env.BlockHeight)
	return result.Ok(pollId)
}

func (pr *PollRegistry) UpdatePoll(env common.Environment, pollId uint64, title string, description string) result.Result[struct{}] {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()

	poll, symbol := pr.mutablePoll(env, pollId)
	if symbol != "" {
		return common.Fail[struct{}](symbol)
	}
	if !validTitle(title) {
		return common.Fail[struct{}](common.ErrInvalidTitle)
	}
	if !validDescription(description) {
		return common.Fail[struct{}](common.ErrInvalidDescription)
	}

	if err := pr.emit(env, pollId, eventSink.EventUpdated); err != nil {
		return common.Fail[struct{}](common.ErrEmitEventFailed)
	}

	poll.Title = title
	poll.Description = description
	pr.polls[pollId] = poll
	pr.updates[pollId] = PollUpdate{
		UpdateTitle:       title,
		UpdateDescription: description,
		UpdateTimestamp:   env.BlockHeight,
		Updater:           env.Caller,
	}

	pr.log.Debug("poll updated", "poll_id", pollId, "updater", env.Caller)
	return result.Ok(struct{}{})
}

func (pr *PollRegistry) ClosePoll(env common.Environment, pollId uint64) result.Result[struct{}] {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()

	poll, symbol := pr.mutablePoll(env, pollId)
	if symbol != "" {
		return common.Fail[struct{}](symbol)
	}

	if err := pr.emit(env, pollId, eventSink.EventClosed); err != nil {
		return common.Fail[struct{}](common.ErrEmitEventFailed)
	}

	poll.IsActive = false
	pr.polls[pollId] = poll

	pr.log.Debug("poll closed", "poll_id", pollId, "closer", env.Caller)
	return result.Ok(struct{}{})
}

func (pr *PollRegistry) GetPoll(pollId uint64) optional.Option[Poll] {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()

	poll, ok := pr.polls[pollId]
	if !ok {
		return optional.None[Poll]()
	}
	return optional.Some(poll)
}

func (pr *PollRegistry) GetPollUpdate(pollId uint64) optional.Option[PollUpdate] {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()

	update, ok := pr.updates[pollId]
	if !ok {
		return optional.None[PollUpdate]()
	}
	return optional.Some(update)
}

func (pr *PollRegistry) GetPollCount() uint64 {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()
	return pr.pollCounter
}

func (pr *PollRegistry) GetMaxPolls() int64 {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()
	return pr.maxPolls
}

func (pr *PollRegistry) GetAuthorityPrincipal() optional.Option[common.Principal] {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()
	return pr.authority.Get()
}

// Export returns a copy of every poll ordered by id
func (pr *PollRegistry) Export() []Poll {
	pr.mtx.Lock()
	defer pr.mtx.Unlock()

	out := make([]Poll, 0, pr.pollCounter)
	for id := uint64(0); id < pr.pollCounter; id++ {
		out = append(out, pr.polls[id])
	}
	return out
}

// Existence, then creator, then activity. Shared by update and close.
func (pr *PollRegistry) mutablePoll(env common.Environment, pollId uint64) (Poll, common.ErrorSymbol) {
	poll, ok := pr.polls[pollId]
	if !ok {
		return Poll{}, common.ErrPollNotFound
	}
	if poll.Creator != env.Caller {
		return Poll{}, common.ErrNotAuthorized
	}
	if !poll.IsActive {
		return Poll{}, common.ErrPollNotActive
	}
	return poll, ""
}

func (pr *PollRegistry) emit(env common.Environment, pollId uint64, eventType eventSink.EventType) error {
	err := pr.events.EmitPollEvent(eventSink.PollEvent{
		Id:          pr.eventCounter,
		PollId:      pollId,
		Type:        eventType,
		Actor:       env.Caller,
		BlockHeight: env.BlockHeight,
	})
	if err != nil {
		pr.log.Error("failed to emit poll event", "poll_id", pollId, "type", eventType, "err", err)
		return err
	}
	pr.eventCounter++
	return nil
}

func validTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	return n > 0 && n <= common.MAX_TITLE_LENGTH
}

func validDescription(description string) bool {
	n := utf8.RuneCountInString(description)
	return n > 0 && n <= common.MAX_DESCRIPTION_LENGTH
}
