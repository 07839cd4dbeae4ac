package voteLedger

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"vsc-polls/lib/logger"
	"vsc-polls/modules/common"
	eventSink "vsc-polls/modules/event-sink"
	ledgerTransfer "vsc-polls/modules/ledger-transfer"

	"github.com/JustinKnueppel/go-result"
	"github.com/moznion/go-optional"
)

// VoteLedger owns stakes, bans, cast votes and option tallies. Poll state is only ever read,
// through PollReader.
//
// Vote events and transfer intents are handed to their sinks after every check has passed
// and before any state changes, so a sink failure leaves the ledger as it was.
type VoteLedger struct {
	mtx sync.Mutex

	votes     map[VoteKey]Vote
	stakes    map[VoteKey]Stake
	options   map[OptionKey]Option
	banned    map[common.Principal]struct{}
	pollTypes map[uint64]common.PollType

	voteCounter     uint64
	transferCounter uint64

	maxVotesPerPoll  int64
	minStakeRequired int64
	escrow           common.Principal
	authority        common.WriteOnce[common.Principal]

	polls     PollReader
	events    eventSink.Sink
	transfers ledgerTransfer.Sink
	log       logger.Logger
}

type LedgerOption func(*VoteLedger)

func WithMaxVotesPerPoll(max int64) LedgerOption {
	return func(vl *VoteLedger) {
		vl.maxVotesPerPoll = max
	}
}

func WithMinStakeRequired(min int64) LedgerOption {
	return func(vl *VoteLedger) {
		vl.minStakeRequired = min
	}
}

func WithEscrowAccount(escrow common.Principal) LedgerOption {
	return func(vl *VoteLedger) {
		vl.escrow = escrow
	}
}

func WithLogger(log logger.Logger) LedgerOption {
	return func(vl *VoteLedger) {
		vl.log = log
	}
}

func New(polls PollReader, events eventSink.Sink, transfers ledgerTransfer.Sink, opts ...LedgerOption) *VoteLedger {
	vl := &VoteLedger{
		votes:            make(map[VoteKey]Vote),
		stakes:           make(map[VoteKey]Stake),
		options:          make(map[OptionKey]Option),
		banned:           make(map[common.Principal]struct{}),
		pollTypes:        make(map[uint64]common.PollType),
		maxVotesPerPoll:  common.MAX_VOTES_PER_POLL,
		minStakeRequired: common.MIN_STAKE_REQUIRED,
		escrow:           common.ESCROW_ACCOUNT,
		polls:            polls,
		events:           events,
		transfers:        transfers,
		log:              logger.PrefixedLogger{Prefix: "vote-ledger"},
	}
	for _, opt := range opts {
		opt(vl)
	}
	return vl
}

func (vl *VoteLedger) SetAuthorityPrincipal(env common.Environment, principal common.Principal) result.Result[struct{}] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	if principal.IsNull() {
		return common.Fail[struct{}](common.ErrInvalidAuthority)
	}
	if !vl.authority.Set(principal) {
		return common.Fail[struct{}](common.ErrNotAuthorized)
	}
	vl.log.Info("authority set", "authority", principal, "caller", env.Caller)
	return result.Ok(struct{}{})
}

func (vl *VoteLedger) SetMaxVotesPerPoll(env common.Environment, max int64) result.Result[struct{}] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	if max <= 0 {
		return common.Fail[struct{}](common.ErrInvalidMaxVotes)
	}
	if !common.IsAuthority(&vl.authority, env.Caller) {
		return common.Fail[struct{}](common.ErrNotAuthorized)
	}
	vl.maxVotesPerPoll = max
	return result.Ok(struct{}{})
}

func (vl *VoteLedger) SetMinStakeRequired(env common.Environment, min int64) result.Result[struct{}] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	if min < 0 {
		return common.Fail[struct{}](common.ErrInvalidStakeAmount)
	}
	if !common.IsAuthority(&vl.authority, env.Caller) {
		return common.Fail[struct{}](common.ErrNotAuthorized)
	}
	vl.minStakeRequired = min
	return result.Ok(struct{}{})
}

func (vl *VoteLedger) BanVoter(env common.Environment, voter common.Principal) result.Result[struct{}] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	if !common.IsAuthority(&vl.authority, env.Caller) {
		return common.Fail[struct{}](common.ErrNotAuthorized)
	}
	if voter.IsNull() {
		return common.Fail[struct{}](common.ErrInvalidVoter)
	}
	vl.banned[voter] = struct{}{}
	vl.log.Info("voter banned", "voter", voter)
	return result.Ok(struct{}{})
}

func (vl *VoteLedger) UnbanVoter(env common.Environment, voter common.Principal) result.Result[struct{}] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	if !common.IsAuthority(&vl.authority, env.Caller) {
		return common.Fail[struct{}](common.ErrNotAuthorized)
	}
	delete(vl.banned, voter)
	vl.log.Info("voter unbanned", "voter", voter)
	return result.Ok(struct{}{})
}

func (vl *VoteLedger) SetPollType(env common.Environment, pollId uint64, pollType common.PollType) result.Result[struct{}] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	if !common.IsAuthority(&vl.authority, env.Caller) {
		return common.Fail[struct{}](common.ErrNotAuthorized)
	}
	if pollId == 0 {
		return common.Fail[struct{}](common.ErrInvalidPollId)
	}
	if !pollType.Valid() {
		return common.Fail[struct{}](common.ErrInvalidPollType)
	}
	vl.pollTypes[pollId] = pollType
	return result.Ok(struct{}{})
}

// AddOption opens an option for voting. Only the poll's creator may add options, and only
// while the poll is active.
func (vl *VoteLedger) AddOption(env common.Environment, pollId uint64, optionId uint64) result.Result[struct{}] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	poll, err := vl.polls.GetPoll(pollId).Take()
	if err != nil {
		return common.Fail[struct{}](common.ErrPollNotFound)
	}
	if poll.Creator != env.Caller {
		return common.Fail[struct{}](common.ErrNotAuthorized)
	}
	if !poll.IsActive {
		return common.Fail[struct{}](common.ErrPollNotActive)
	}
	if optionId == 0 {
		return common.Fail[struct{}](common.ErrInvalidOptionId)
	}
	key := OptionKey{pollId, optionId}
	if _, exists := vl.options[key]; exists {
		return common.Fail[struct{}](common.ErrOptionAlreadyExists)
	}

	vl.options[key] = Option{VoteCount: 0}
	vl.log.Debug("option added", "poll_id", pollId, "option_id", optionId)
	return result.Ok(struct{}{})
}

// StakeForVote adds amount to the caller's stake on pollId. Returns the new balance.
func (vl *VoteLedger) StakeForVote(env common.Environment, pollId uint64, amount int64) result.Result[int64] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	if pollId == 0 {
		return common.Fail[int64](common.ErrInvalidPollId)
	}
	if amount < 0 || amount < vl.minStakeRequired {
		return common.Fail[int64](common.ErrInvalidStakeAmount)
	}
	key := VoteKey{pollId, env.Caller}
	stake := vl.stakes[key]
	if amount > math.MaxInt64-stake.Amount {
		return common.Fail[int64](common.ErrInvalidStakeAmount)
	}

	if err := vl.transfer(env, pollId, ledgerTransfer.TypeStake, env.Caller, vl.escrow, amount); err != nil {
		return common.Fail[int64](common.ErrTransferFailed)
	}

	stake.Amount += amount
	vl.stakes[key] = stake

	vl.log.Debug("stake added", "poll_id", pollId, "voter", env.Caller, "amount", amount, "balance", stake.Amount)
	return result.Ok(stake.Amount)
}

// CastVote records the caller's single vote on pollId. Returns the vote event id.
//
// Check order matters: a banned voter who already voted sees ALREADY_VOTED.
func (vl *VoteLedger) CastVote(env common.Environment, pollId uint64, optionId uint64, weight uint8) result.Result[uint64] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	poll, err := vl.polls.GetPoll(pollId).Take()
	if err != nil {
		return common.Fail[uint64](common.ErrPollNotFound)
	}
	optionKey := OptionKey{pollId, optionId}
	option, ok := vl.options[optionKey]
	if !ok {
		return common.Fail[uint64](common.ErrOptionNotFound)
	}
	if pollId == 0 {
		return common.Fail[uint64](common.ErrInvalidPollId)
	}
	if optionId == 0 {
		return common.Fail[uint64](common.ErrInvalidOptionId)
	}
	if weight < common.MIN_VOTE_WEIGHT || weight > common.MAX_VOTE_WEIGHT {
		return common.Fail[uint64](common.ErrInvalidVoteWeight)
	}
	if !poll.IsActive {
		return common.Fail[uint64](common.ErrPollNotActive)
	}
	if env.BlockHeight > poll.EndTime {
		return common.Fail[uint64](common.ErrVotingPeriodEnded)
	}
	voteKey := VoteKey{pollId, env.Caller}
	if _, voted := vl.votes[voteKey]; voted {
		return common.Fail[uint64](common.ErrAlreadyVoted)
	}
	if _, isBanned := vl.banned[env.Caller]; isBanned {
		return common.Fail[uint64](common.ErrVoterBanned)
	}
	if vl.stakes[voteKey].Amount < vl.minStakeRequired {
		return common.Fail[uint64](common.ErrInsufficientStake)
	}
	if vl.voteCounter >= uint64(vl.maxVotesPerPoll) {
		return common.Fail[uint64](common.ErrMaxVotesExceeded)
	}

	eventId := vl.voteCounter
	err = vl.events.EmitVoteEvent(eventSink.VoteEvent{
		Id:          eventId,
		PollId:      pollId,
		Voter:       env.Caller,
		OptionId:    optionId,
		Weight:      weight,
		BlockHeight: env.BlockHeight,
	})
	if err != nil {
		vl.log.Error("failed to emit vote event", "poll_id", pollId, "voter", env.Caller, "err", err)
		return common.Fail[uint64](common.ErrEmitEventFailed)
	}

	vl.votes[voteKey] = Vote{
		OptionId:   optionId,
		VoteWeight: weight,
		Timestamp:  env.BlockHeight,
	}
	option.VoteCount += uint64(weight)
	vl.options[optionKey] = option
	vl.voteCounter++

	vl.log.Debug("vote cast", "poll_id", pollId, "option_id", optionId, "voter", env.Caller, "weight", weight)
	return result.Ok(eventId)
}

// WithdrawStake returns amount of the caller's stake once the poll is closed. Returns the
// remaining balance.
func (vl *VoteLedger) WithdrawStake(env common.Environment, pollId uint64, amount int64) result.Result[int64] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	poll, err := vl.polls.GetPoll(pollId).Take()
	if err != nil {
		return common.Fail[int64](common.ErrPollNotFound)
	}
	if pollId == 0 {
		return common.Fail[int64](common.ErrInvalidPollId)
	}
	if poll.IsActive {
		return common.Fail[int64](common.ErrPollNotActive)
	}
	key := VoteKey{pollId, env.Caller}
	stake := vl.stakes[key]
	if amount < 0 {
		return common.Fail[int64](common.ErrInvalidStakeAmount)
	}
	if amount > stake.Amount {
		return common.Fail[int64](common.ErrInsufficientStake)
	}

	if err := vl.transfer(env, pollId, ledgerTransfer.TypeWithdraw, vl.escrow, env.Caller, amount); err != nil {
		return common.Fail[int64](common.ErrTransferFailed)
	}

	stake.Amount -= amount
	vl.stakes[key] = stake

	vl.log.Debug("stake withdrawn", "poll_id", pollId, "voter", env.Caller, "amount", amount, "balance", stake.Amount)
	return result.Ok(stake.Amount)
}

func (vl *VoteLedger) GetVoteCount() uint64 {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()
	return vl.voteCounter
}

func (vl *VoteLedger) GetVote(pollId uint64, voter common.Principal) optional.Option[Vote] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	vote, ok := vl.votes[VoteKey{pollId, voter}]
	if !ok {
		return optional.None[Vote]()
	}
	return optional.Some(vote)
}

// GetStake returns the caller's balance on pollId, zero if they never staked.
func (vl *VoteLedger) GetStake(pollId uint64, voter common.Principal) Stake {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()
	return vl.stakes[VoteKey{pollId, voter}]
}

func (vl *VoteLedger) GetOption(pollId uint64, optionId uint64) optional.Option[Option] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	option, ok := vl.options[OptionKey{pollId, optionId}]
	if !ok {
		return optional.None[Option]()
	}
	return optional.Some(option)
}

func (vl *VoteLedger) IsBanned(voter common.Principal) bool {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()
	_, ok := vl.banned[voter]
	return ok
}

// GetPollType returns the type override set through SetPollType, if any.
func (vl *VoteLedger) GetPollType(pollId uint64) optional.Option[common.PollType] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	pollType, ok := vl.pollTypes[pollId]
	if !ok {
		return optional.None[common.PollType]()
	}
	return optional.Some(pollType)
}

func (vl *VoteLedger) GetMaxVotesPerPoll() int64 {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()
	return vl.maxVotesPerPoll
}

func (vl *VoteLedger) GetMinStakeRequired() int64 {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()
	return vl.minStakeRequired
}

func (vl *VoteLedger) GetAuthorityPrincipal() optional.Option[common.Principal] {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()
	return vl.authority.Get()
}

// Tally lists every option of pollId with its weighted vote count, ordered by option id.
func (vl *VoteLedger) Tally(pollId uint64) []OptionTally {
	vl.mtx.Lock()
	defer vl.mtx.Unlock()

	out := make([]OptionTally, 0)
	for key, option := range vl.options {
		if key.PollId != pollId {
			continue
		}
		out = append(out, OptionTally{OptionId: key.OptionId, VoteCount: option.VoteCount})
	}
	slices.SortFunc(out, func(a, b OptionTally) int {
		return cmp.Compare(a.OptionId, b.OptionId)
	})
	return out
}

func (vl *VoteLedger) transfer(env common.Environment, pollId uint64, txType string, from, to common.Principal, amount int64) error {
	err := vl.transfers.Transfer(ledgerTransfer.TransferIntent{
		Id:          ledgerTransfer.IntentId(txType, pollId, env.Caller, env.BlockHeight, vl.transferCounter),
		From:        from,
		To:          to,
		Amount:      amount,
		Asset:       common.STAKE_ASSET,
		PollId:      pollId,
		Type:        txType,
		BlockHeight: env.BlockHeight,
	})
	if err != nil {
		vl.log.Error("transfer failed", "poll_id", pollId, "type", txType, "from", from, "to", to, "amount", amount, "err", err)
		return err
	}
	vl.transferCounter++
	return nil
}
