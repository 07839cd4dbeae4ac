package aggregate

import (
	"context"
	"errors"
	"vsc-polls/lib/logger"

	"github.com/chebyrash/promise"
)

type Aggregate struct {
	ctx     context.Context
	cancel  context.CancelFunc
	plugins []Plugin
	log     logger.Logger
}

var _ Plugin = &Aggregate{}

func New(plugins []Plugin) *Aggregate {
	return NewWithContext(context.Background(), plugins)
}

// NewWithContext ties the lifetime of Run to ctx. Cancelling ctx stops every plugin.
func NewWithContext(ctx context.Context, plugins []Plugin) *Aggregate {
	ctx, cancel := context.WithCancel(ctx)
	return &Aggregate{
		ctx,
		cancel,
		plugins,
		logger.PrefixedLogger{Prefix: "aggregate"},
	}
}

// Run initializes and starts every plugin, then blocks until the aggregate's context is
// cancelled (or a plugin fails to start) and stops them.
func (a *Aggregate) Run() error {
	if err := a.Init(); err != nil {
		return err
	}

	_, err := a.Start().Await(a.ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.Join(err, a.Stop())
	}

	<-a.ctx.Done()
	return a.Stop()
}

// Init implements Plugin.
func (a *Aggregate) Init() error {
	for _, p := range a.plugins {
		if err := p.Init(); err != nil {
			return err
		}
	}
	a.log.Debug("plugins initialized", "count", len(a.plugins))
	return nil
}

// Start implements Plugin.
func (a *Aggregate) Start() *promise.Promise[any] {
	promises := make([]*promise.Promise[any], len(a.plugins))
	for i, p := range a.plugins {
		promises[i] = p.Start()
	}
	return promise.Then(
		promise.All(a.ctx, promises...),
		a.ctx,
		func([]any) (any, error) {
			return nil, nil
		},
	)
}

// Stop implements Plugin. Plugins are stopped in reverse order of registration.
func (a *Aggregate) Stop() error {
	defer a.cancel()
	var errs []error
	for i := len(a.plugins) - 1; i >= 0; i-- {
		if err := a.plugins[i].Stop(); err != nil {
			a.log.Error("plugin stop failed", "index", i, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
