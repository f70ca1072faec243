package server

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ValentinKolb/povms/lib/addr"
	"github.com/ValentinKolb/povms/lib/errcode"
	"github.com/ValentinKolb/povms/lib/store"
	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/povms"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("worker")

// NewWorker creates a worker pumping the queue of ctx. The worker does not own
// ctx, closing it stays with the caller.
//
// Usage:
//
//	w := server.NewWorker(ctx)
//	_ = w.Register(server.NewPingAdapter())
//	go w.Serve(stdctx)
func NewWorker(ctx *povms.Context) *Worker {
	Logger.Infof("created worker for context %s", ctx.Name())
	Logger.Infof("%s", ctx.Config().String())

	return &Worker{
		ctx:      ctx,
		adapters: xsync.NewMapOf[store.Type, IMessageAdapter](),
	}
}

// Worker dispatches the messages arriving at one context to the registered
// adapters, one class per adapter
type Worker struct {
	ctx       *povms.Context
	adapters  *xsync.MapOf[store.Type, IMessageAdapter]
	processed atomic.Uint64
	failed    atomic.Uint64
}

// Register installs adapter for every message of its class. A class can only
// be registered once.
func (w *Worker) Register(adapter IMessageAdapter) error {
	if adapter == nil {
		return errcode.Param
	}
	class := adapter.Class()
	if _, loaded := w.adapters.LoadOrStore(class, adapter); loaded {
		return errcode.Wrap(errcode.Param, "adapter for class %s already registered", class)
	}

	err := w.ctx.InstallReceiver(class, povms.Wildcard, func(msg, result *store.Object, mode common.Mode, _ any) error {
		return adapter.Handle(msg, result, mode)
	}, nil)
	if err != nil {
		w.adapters.Delete(class)
		return err
	}
	Logger.Debugf("registered adapter for class %s", class)
	return nil
}

// Address returns the address clients send to in order to reach the worker
func (w *Worker) Address() addr.Address {
	return w.ctx.Address()
}

// Serve processes messages until stdctx is cancelled or the context is closed.
// It returns nil on cancellation and errcode.InvalidContext if the context was
// closed underneath.
func (w *Worker) Serve(stdctx context.Context) error {
	Logger.Infof("worker %s serving at %s", w.ctx.Name(), w.ctx.Address())
	for {
		select {
		case <-stdctx.Done():
			Logger.Infof("worker %s stopped (%d processed, %d failed)", w.ctx.Name(), w.processed.Load(), w.failed.Load())
			return nil
		default:
		}

		err := w.ctx.ProcessMessages(true, false)
		switch {
		case err == nil:
			// nothing arrived or a reply was deposited
		case errors.Is(err, errcode.False):
			w.processed.Add(1)
		case errors.Is(err, errcode.InvalidContext):
			return err
		default:
			w.processed.Add(1)
			w.failed.Add(1)
			Logger.Warningf("worker %s: %v", w.ctx.Name(), err)
		}
	}
}

// Stats returns the number of fresh messages the worker dispatched and how
// many of them failed
func (w *Worker) Stats() (processed, failed uint64) {
	return w.processed.Load(), w.failed.Load()
}
