package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"vsc-polls/lib/logger"
	"vsc-polls/modules/aggregate"
	"vsc-polls/modules/common"
	"vsc-polls/modules/db"
	"vsc-polls/modules/db/checkpoints"
	"vsc-polls/modules/db/polls"
	eventSink "vsc-polls/modules/event-sink"
	ledgerTransfer "vsc-polls/modules/ledger-transfer"
	"vsc-polls/modules/metrics"
	pollProcessing "vsc-polls/modules/poll-processing"
	pollRegistry "vsc-polls/modules/poll-registry"
	"vsc-polls/modules/snapshot"
	voteLedger "vsc-polls/modules/vote-ledger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const programName = "poll-node"

var globalFlags = struct {
	debug   bool
	dataDir string
}{}

var runFlags = struct {
	noDb        bool
	metricsAddr string
}{}

// Logs go to stderr; stdout carries operation results.
func commonRun() *slog.Logger {
	logLevel := slog.LevelInfo
	if globalFlags.debug {
		logLevel = slog.LevelDebug
	}
	l := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: globalFlags.debug,
		Level:     logLevel,
	}))
	slog.SetDefault(l)
	return l
}

func loadConfigs() (common.PollsConfig, db.DbConfig, error) {
	pollsConf := common.NewPollsConfig(globalFlags.dataDir)
	if err := pollsConf.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	dbConf := db.NewDbConfig(globalFlags.dataDir)
	if err := dbConf.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to load db config: %w", err)
	}
	return pollsConf, dbConf, nil
}

func runNode(cmd *cobra.Command, args []string) error {
	log := logger.PrefixedLogger{Prefix: programName, Base: commonRun()}

	pollsConf, dbConf, err := loadConfigs()
	if err != nil {
		return err
	}
	conf := pollsConf.Get()

	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	plugins := make([]aggregate.Plugin, 0)

	var events eventSink.Sink = eventSink.NewMemory()
	var transfers ledgerTransfer.Sink = ledgerTransfer.NewMemory()
	var snapshots snapshot.SnapshotWriter
	if !runFlags.noDb {
		mongo := db.New(dbConf)
		pollsDb := polls.New(mongo, dbConf)
		eventsCol := polls.NewEvents(pollsDb)
		transfersCol := polls.NewTransfers(pollsDb)
		snapshotsCol := polls.NewSnapshots(pollsDb)
		plugins = append(plugins,
			mongo,
			pollsDb,
			db.NewReindex(pollsDb.DbInstance),
			eventsCol,
			transfersCol,
			snapshotsCol,
		)
		events, transfers, snapshots = eventsCol, transfersCol, snapshotsCol
	} else {
		log.Info("running without a database, events and transfers stay in memory")
	}
	events = m.EventSink(eventSink.Multi{events, eventSink.NewLog(logger.PrefixedLogger{Prefix: "events"})})
	transfers = m.TransferSink(transfers)

	registry := pollRegistry.New(events,
		pollRegistry.WithMaxPolls(conf.MaxPolls),
	)
	votes := voteLedger.New(registry, events, transfers,
		voteLedger.WithMaxVotesPerPoll(conf.MaxVotesPerPoll),
		voteLedger.WithMinStakeRequired(conf.MinStakeRequired),
		voteLedger.WithEscrowAccount(conf.EscrowAccount),
	)
	if conf.Authority != "" {
		env := common.Environment{Caller: conf.Authority}
		if res := registry.SetAuthorityPrincipal(env, conf.Authority); res.IsErr() {
			return fmt.Errorf("failed to set registry authority: %w", res.UnwrapErr())
		}
		if res := votes.SetAuthorityPrincipal(env, conf.Authority); res.IsErr() {
			return fmt.Errorf("failed to set ledger authority: %w", res.UnwrapErr())
		}
	}

	processor := pollProcessing.New(registry, votes)
	store := checkpoints.New(pollsConf)
	plugins = append(plugins,
		store,
		snapshot.New(pollsConf, registry, votes, processor, store, snapshots),
	)
	if runFlags.metricsAddr != "" {
		plugins = append(plugins, metrics.NewServer(runFlags.metricsAddr, promRegistry))
	}
	plugins = append(plugins, pollProcessing.NewStream(processor, os.Stdin, os.Stdout))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return aggregate.NewWithContext(ctx, plugins).Run()
}

func runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply operations read from stdin, one JSON object per line",
		RunE:  runNode,
	}
	cmd.Flags().BoolVar(&runFlags.noDb, "no-db", false, "keep events and transfers in memory instead of mongo")
	cmd.Flags().StringVar(&runFlags.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	return cmd
}

func checkpointCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoint <poll-id>",
		Short: "Print the latest checkpoint of a poll",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commonRun()
			pollId, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid poll id %q: %w", args[0], err)
			}
			pollsConf, _, err := loadConfigs()
			if err != nil {
				return err
			}
			store, err := checkpoints.Open(pollsConf.Get().CheckpointDir)
			if err != nil {
				return err
			}
			defer store.Stop()

			cp, c, err := store.Get(context.Background(), pollId)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(struct {
				Cid string `json:"cid"`
				checkpoints.Checkpoint
			}{c.String(), cp})
		},
	}
}

func resetDbCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-db",
		Short: "Empty every collection of the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.PrefixedLogger{Prefix: programName, Base: commonRun()}
			_, dbConf, err := loadConfigs()
			if err != nil {
				return err
			}
			mongo := db.New(dbConf)
			if err := mongo.Init(); err != nil {
				return err
			}
			defer mongo.Stop()
			pollsDb := polls.New(mongo, dbConf)
			if err := pollsDb.Init(); err != nil {
				return err
			}
			if err := pollsDb.Nuke(); err != nil {
				return err
			}
			log.Info("database reset", "db", dbConf.Get().DbName)
			return nil
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Poll and vote ledger node",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.dataDir, "data-dir", "data", "directory holding config and checkpoints")

	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(checkpointCommand())
	rootCmd.AddCommand(resetDbCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
