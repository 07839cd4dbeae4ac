package pollProcessing

import (
	"math"
	"strconv"
	"vsc-polls/modules/common"
	pollRegistry "vsc-polls/modules/poll-registry"

	"github.com/JustinKnueppel/go-result"
)

func okResult[T any](res result.Result[T], ret func(T) string) TxResult {
	return result.MapOrElse(
		res,
		func(err error) TxResult {
			symbol := common.SymbolOf(err)
			if symbol == "" {
				symbol = common.ErrInvalidPayload
			}
			return TxResult{Success: false, ErrorCode: symbol}
		},
		func(v T) TxResult {
			return TxResult{Success: true, Ret: ret(v)}
		},
	)
}

func noRet(struct{}) string {
	return ""
}

func uintRet(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func intRet(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Out of range weights become 0, which the ledger rejects at the same point it would
// reject any other invalid weight.
func toWeight(w int64) uint8 {
	if w < 0 || w > math.MaxUint8 {
		return 0
	}
	return uint8(w)
}

type TxPollSetAuthority struct {
	Principal *common.Principal `mapstructure:"principal" validate:"required" symbol:"INVALID_AUTHORITY"`
}

func (tx *TxPollSetAuthority) Type() string {
	return "poll.set_authority"
}

func (tx *TxPollSetAuthority) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.polls.SetAuthorityPrincipal(self.Env(), *tx.Principal), noRet)
}

type TxPollSetMaxPolls struct {
	Max *int64 `mapstructure:"max" validate:"required" symbol:"MAX_POLLS_EXCEEDED"`
}

func (tx *TxPollSetMaxPolls) Type() string {
	return "poll.set_max_polls"
}

func (tx *TxPollSetMaxPolls) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.polls.SetMaxPolls(self.Env(), *tx.Max), noRet)
}

type TxCreatePoll struct {
	Title         *string `mapstructure:"title" validate:"required" symbol:"INVALID_TITLE"`
	Description   *string `mapstructure:"description" validate:"required" symbol:"INVALID_DESCRIPTION"`
	Duration      *int64  `mapstructure:"duration" validate:"required" symbol:"INVALID_DURATION"`
	StakeRequired *int64  `mapstructure:"stake_required" validate:"required" symbol:"INVALID_STAKE_REQUIREMENT"`
	PollType      *string `mapstructure:"poll_type" validate:"required" symbol:"INVALID_POLL_TYPE"`
}

func (tx *TxCreatePoll) Type() string {
	return "poll.create"
}

func (tx *TxCreatePoll) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.polls.CreatePoll(self.Env(), pollRegistry.CreatePollArgs{
		Title:         *tx.Title,
		Description:   *tx.Description,
		Duration:      *tx.Duration,
		StakeRequired: *tx.StakeRequired,
		PollType:      common.PollType(*tx.PollType),
	}), uintRet)
}

type TxUpdatePoll struct {
	PollId      *uint64 `mapstructure:"poll_id" validate:"required" symbol:"POLL_NOT_FOUND"`
	Title       *string `mapstructure:"title" validate:"required" symbol:"INVALID_TITLE"`
	Description *string `mapstructure:"description" validate:"required" symbol:"INVALID_DESCRIPTION"`
}

func (tx *TxUpdatePoll) Type() string {
	return "poll.update"
}

func (tx *TxUpdatePoll) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.polls.UpdatePoll(self.Env(), *tx.PollId, *tx.Title, *tx.Description), noRet)
}

type TxClosePoll struct {
	PollId *uint64 `mapstructure:"poll_id" validate:"required" symbol:"POLL_NOT_FOUND"`
}

func (tx *TxClosePoll) Type() string {
	return "poll.close"
}

func (tx *TxClosePoll) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.polls.ClosePoll(self.Env(), *tx.PollId), noRet)
}

type TxVoteSetAuthority struct {
	Principal *common.Principal `mapstructure:"principal" validate:"required" symbol:"INVALID_AUTHORITY"`
}

func (tx *TxVoteSetAuthority) Type() string {
	return "vote.set_authority"
}

func (tx *TxVoteSetAuthority) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.votes.SetAuthorityPrincipal(self.Env(), *tx.Principal), noRet)
}

type TxSetMaxVotes struct {
	Max *int64 `mapstructure:"max" validate:"required" symbol:"INVALID_MAX_VOTES"`
}

func (tx *TxSetMaxVotes) Type() string {
	return "vote.set_max_votes"
}

func (tx *TxSetMaxVotes) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.votes.SetMaxVotesPerPoll(self.Env(), *tx.Max), noRet)
}

type TxSetMinStake struct {
	Min *int64 `mapstructure:"min" validate:"required" symbol:"INVALID_STAKE_AMOUNT"`
}

func (tx *TxSetMinStake) Type() string {
	return "vote.set_min_stake"
}

func (tx *TxSetMinStake) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.votes.SetMinStakeRequired(self.Env(), *tx.Min), noRet)
}

type TxBanVoter struct {
	Voter *common.Principal `mapstructure:"voter" validate:"required" symbol:"INVALID_VOTER"`
}

func (tx *TxBanVoter) Type() string {
	return "vote.ban"
}

func (tx *TxBanVoter) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.votes.BanVoter(self.Env(), *tx.Voter), noRet)
}

type TxUnbanVoter struct {
	Voter *common.Principal `mapstructure:"voter" validate:"required" symbol:"INVALID_VOTER"`
}

func (tx *TxUnbanVoter) Type() string {
	return "vote.unban"
}

func (tx *TxUnbanVoter) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.votes.UnbanVoter(self.Env(), *tx.Voter), noRet)
}

type TxSetPollType struct {
	PollId   *uint64 `mapstructure:"poll_id" validate:"required" symbol:"INVALID_POLL_ID"`
	PollType *string `mapstructure:"poll_type" validate:"required" symbol:"INVALID_POLL_TYPE"`
}

func (tx *TxSetPollType) Type() string {
	return "vote.set_poll_type"
}

func (tx *TxSetPollType) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.votes.SetPollType(self.Env(), *tx.PollId, common.PollType(*tx.PollType)), noRet)
}

type TxAddOption struct {
	PollId   *uint64 `mapstructure:"poll_id" validate:"required" symbol:"POLL_NOT_FOUND"`
	OptionId *uint64 `mapstructure:"option_id" validate:"required" symbol:"INVALID_OPTION_ID"`
}

func (tx *TxAddOption) Type() string {
	return "vote.add_option"
}

func (tx *TxAddOption) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.votes.AddOption(self.Env(), *tx.PollId, *tx.OptionId), noRet)
}

type TxStake struct {
	PollId *uint64 `mapstructure:"poll_id" validate:"required" symbol:"INVALID_POLL_ID"`
	Amount *int64  `mapstructure:"amount" validate:"required" symbol:"INVALID_STAKE_AMOUNT"`
}

func (tx *TxStake) Type() string {
	return "vote.stake"
}

func (tx *TxStake) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.votes.StakeForVote(self.Env(), *tx.PollId, *tx.Amount), intRet)
}

type TxCastVote struct {
	PollId   *uint64 `mapstructure:"poll_id" validate:"required" symbol:"POLL_NOT_FOUND"`
	OptionId *uint64 `mapstructure:"option_id" validate:"required" symbol:"OPTION_NOT_FOUND"`
	Weight   *int64  `mapstructure:"weight" validate:"required" symbol:"INVALID_VOTE_WEIGHT"`
}

func (tx *TxCastVote) Type() string {
	return "vote.cast"
}

func (tx *TxCastVote) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.votes.CastVote(self.Env(), *tx.PollId, *tx.OptionId, toWeight(*tx.Weight)), uintRet)
}

type TxWithdraw struct {
	PollId *uint64 `mapstructure:"poll_id" validate:"required" symbol:"POLL_NOT_FOUND"`
	Amount *int64  `mapstructure:"amount" validate:"required" symbol:"INVALID_STAKE_AMOUNT"`
}

func (tx *TxWithdraw) Type() string {
	return "vote.withdraw"
}

func (tx *TxWithdraw) ExecuteTx(p *Processor, self TxSelf) TxResult {
	return okResult(p.votes.WithdrawStake(self.Env(), *tx.PollId, *tx.Amount), intRet)
}
