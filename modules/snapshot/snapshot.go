package snapshot

import (
	"context"
	"errors"
	"fmt"
	"vsc-polls/lib/logger"
	agg "vsc-polls/modules/aggregate"
	"vsc-polls/modules/common"
	"vsc-polls/modules/db/checkpoints"
	pollRegistry "vsc-polls/modules/poll-registry"
	voteLedger "vsc-polls/modules/vote-ledger"

	"github.com/chebyrash/promise"
	"github.com/ipfs/go-cid"
	"github.com/robfig/cron/v3"
)

type PollSource interface {
	Export() []pollRegistry.Poll
}

type TallySource interface {
	Tally(pollId uint64) []voteLedger.OptionTally
	GetVoteCount() uint64
}

// StateBarrier runs read while no operation is being applied. height is the last block
// height applied. Every read of one snapshot happens inside a single call, so checkpoints
// reflect one ledger state.
type StateBarrier interface {
	Consistent(read func(height uint64))
}

type CheckpointWriter interface {
	Put(ctx context.Context, cp checkpoints.Checkpoint) (cid.Cid, error)
}

type SnapshotWriter interface {
	PutPolls(ctx context.Context, polls []pollRegistry.Poll) error
}

type snapshotJob struct {
	conf    common.PollsConfig
	polls   PollSource
	tallies TallySource
	barrier StateBarrier

	checkpoints CheckpointWriter
	// nil when running without a database
	snapshots SnapshotWriter

	cron *cron.Cron
	stop chan struct{}
	log  logger.Logger
}

var _ agg.Plugin = &snapshotJob{}

func New(
	conf common.PollsConfig,
	polls PollSource,
	tallies TallySource,
	barrier StateBarrier,
	checkpoints CheckpointWriter,
	snapshots SnapshotWriter,
) *snapshotJob {
	return &snapshotJob{
		conf:        conf,
		polls:       polls,
		tallies:     tallies,
		barrier:     barrier,
		checkpoints: checkpoints,
		snapshots:   snapshots,
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		stop:        make(chan struct{}),
		log:         logger.PrefixedLogger{Prefix: "snapshot"},
	}
}

func (s *snapshotJob) Init() error {
	return nil
}

// RunOnce writes every poll to the snapshot collection and a checkpoint per poll.
// Failures for one poll do not stop the others.
func (s *snapshotJob) RunOnce(ctx context.Context) error {
	var (
		polls  []pollRegistry.Poll
		cps    []checkpoints.Checkpoint
		height uint64
	)
	s.barrier.Consistent(func(h uint64) {
		height = h
		polls = s.polls.Export()
		voteCount := s.tallies.GetVoteCount()
		cps = make([]checkpoints.Checkpoint, 0, len(polls))
		for _, poll := range polls {
			cps = append(cps, checkpoints.Checkpoint{
				Poll:        poll,
				Options:     s.tallies.Tally(poll.Id),
				VoteCount:   voteCount,
				BlockHeight: h,
			})
		}
	})

	var errs []error
	if s.snapshots != nil {
		if err := s.snapshots.PutPolls(ctx, polls); err != nil {
			errs = append(errs, err)
		}
	}

	for _, cp := range cps {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		c, err := s.checkpoints.Put(ctx, cp)
		if err != nil {
			errs = append(errs, fmt.Errorf("poll %d: %w", cp.Poll.Id, err))
			continue
		}
		s.log.Debug("checkpoint written", "poll_id", cp.Poll.Id, "cid", c.String(), "block_height", height)
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.log.Error("snapshot incomplete", "err", err)
		return err
	}
	s.log.Info("snapshot written", "polls", len(polls), "block_height", height)
	return nil
}

func (s *snapshotJob) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		// create a ctx that cancels when the stop chan is closed
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-s.stop
			cancel()
		}()

		_, err := s.cron.AddFunc(s.conf.Get().SnapshotSchedule, func() {
			select {
			case <-s.stop:
				return
			default:
				s.RunOnce(ctx)
			}
		})
		if err != nil {
			reject(fmt.Errorf("invalid snapshot schedule: %w", err))
			return
		}
		s.cron.Start()
		resolve(nil)
	})
}

func (s *snapshotJob) Stop() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.cron.Stop().Done()
	return nil
}
