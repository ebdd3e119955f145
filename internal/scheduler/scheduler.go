// Package scheduler drives per-frame cron ticks (C7): pause/dummy gates,
// single-flight try-acquire, and push-failure-aborts-tick semantics. Each
// tick is modeled as a reconcile.Request over a frame ID, the same
// call shape controller-runtime uses for a reconciliation loop, since a
// frame tick is itself "converge observed state toward desired state."
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
)

// Renderer executes one frame's render_for_device pass: selection,
// transform, dither, encode. dummy gates the caller, not Renderer itself:
// the scheduler always calls Render so state reflects the scheduled
// choice, then skips Push when dummy is set.
type Renderer interface {
	Render(ctx context.Context, frameID string) error
	Push(ctx context.Context, frameID string) error
}

// FrameGate reports the current paused/dummy flags for a frame, read from
// the live config snapshot so PATCHes take effect on the next tick.
type FrameGate interface {
	Paused(frameID string) bool
	Dummy(frameID string) bool
}

// Locker exposes a frame's single-flight lock.
type Locker interface {
	TryLock(frameID string) bool
	Unlock(frameID string)
}

// Reconciler adapts one cron-driven frame tick to the
// reconcile.Reconciler shape.
type Reconciler struct {
	Renderer Renderer
	Gate     FrameGate
	Locker   Locker
	Log      *slog.Logger
}

// Reconcile runs one tick for the frame named by req. It never returns an
// error upward: per §7, scheduler-loop errors must not escape the tick, so
// failures are logged and Reconcile reports a clean (no-requeue) result —
// the next cron firing is the natural retry.
func (r *Reconciler) Reconcile(ctx context.Context, req reconcile.Request) (reconcile.Result, error) {
	frameID := req.Name
	log := r.logger()

	if r.Gate.Paused(frameID) {
		return reconcile.Result{}, nil
	}

	if !r.Locker.TryLock(frameID) {
		log.Info("skipping tick: frame busy", "frame", frameID)
		return reconcile.Result{}, nil
	}
	defer r.Locker.Unlock(frameID)

	if err := r.Renderer.Render(ctx, frameID); err != nil {
		log.Error("render failed, tick aborted", "frame", frameID, "error", err)
		return reconcile.Result{}, nil
	}

	if r.Gate.Dummy(frameID) {
		return reconcile.Result{}, nil
	}

	if err := r.Renderer.Push(ctx, frameID); err != nil {
		log.Error("push failed, tick aborted", "frame", frameID, "error", err)
		return reconcile.Result{}, nil
	}
	return reconcile.Result{}, nil
}

func (r *Reconciler) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// Scheduler owns one cron entry per frame, each firing a reconcile request
// for that frame's ID.
type Scheduler struct {
	cron         *cron.Cron
	reconciler   *Reconciler
	entryByFrame map[string]cron.EntryID
}

// New builds a scheduler. Expressions passed to AddFrame are parsed with
// robfig/cron's default parser (standard 5-field format).
func New(reconciler *Reconciler) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		reconciler:   reconciler,
		entryByFrame: make(map[string]cron.EntryID),
	}
}

// AddFrame registers frameID's cron expression, replacing any prior
// registration for the same frame.
func (s *Scheduler) AddFrame(frameID, cronExpr string) error {
	s.RemoveFrame(frameID)

	entryID, err := s.cron.AddFunc(cronExpr, func() {
		_, _ = s.reconciler.Reconcile(context.Background(), reconcile.Request{
			NamespacedName: types.NamespacedName{Name: frameID},
		})
	})
	if err != nil {
		return err
	}
	s.entryByFrame[frameID] = entryID
	return nil
}

// RemoveFrame unregisters frameID's cron entry, if any.
func (s *Scheduler) RemoveFrame(frameID string) {
	if entryID, ok := s.entryByFrame[frameID]; ok {
		s.cron.Remove(entryID)
		delete(s.entryByFrame, frameID)
	}
}

// Start begins firing cron entries in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to complete and halts future firings.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

// Trigger runs one synchronous tick for frameID, identical to a cron firing
// but blocking the caller (manual /trigger requests, §4.7).
func (s *Scheduler) Trigger(ctx context.Context, frameID string) (reconcile.Result, error) {
	return s.reconciler.Reconcile(ctx, reconcile.Request{NamespacedName: types.NamespacedName{Name: frameID}})
}
