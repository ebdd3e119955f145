package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
)

type stubRenderer struct {
	renderCalls int
	pushCalls   int
	renderErr   error
	pushErr     error
}

func (s *stubRenderer) Render(ctx context.Context, frameID string) error {
	s.renderCalls++
	return s.renderErr
}

func (s *stubRenderer) Push(ctx context.Context, frameID string) error {
	s.pushCalls++
	return s.pushErr
}

type stubGate struct {
	paused map[string]bool
	dummy  map[string]bool
}

func (g *stubGate) Paused(frameID string) bool { return g.paused[frameID] }
func (g *stubGate) Dummy(frameID string) bool  { return g.dummy[frameID] }

type stubLocker struct {
	mu     sync.Mutex
	locked map[string]bool
}

func newStubLocker() *stubLocker { return &stubLocker{locked: make(map[string]bool)} }

func (l *stubLocker) TryLock(frameID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked[frameID] {
		return false
	}
	l.locked[frameID] = true
	return true
}

func (l *stubLocker) Unlock(frameID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked[frameID] = false
}

func req(frameID string) reconcile.Request {
	return reconcile.Request{NamespacedName: types.NamespacedName{Name: frameID}}
}

func TestReconcileSkipsPausedFrame(t *testing.T) {
	renderer := &stubRenderer{}
	r := &Reconciler{
		Renderer: renderer,
		Gate:     &stubGate{paused: map[string]bool{"f1": true}},
		Locker:   newStubLocker(),
	}
	if _, err := r.Reconcile(context.Background(), req("f1")); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if renderer.renderCalls != 0 {
		t.Fatalf("expected no render for a paused frame, got %d calls", renderer.renderCalls)
	}
}

func TestReconcileSkipsWhenLockHeld(t *testing.T) {
	renderer := &stubRenderer{}
	locker := newStubLocker()
	locker.TryLock("f1")

	r := &Reconciler{
		Renderer: renderer,
		Gate:     &stubGate{},
		Locker:   locker,
	}
	if _, err := r.Reconcile(context.Background(), req("f1")); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if renderer.renderCalls != 0 {
		t.Fatalf("expected tick to be skipped while lock is held, got %d render calls", renderer.renderCalls)
	}
}

func TestReconcileDummySkipsPushButStillRenders(t *testing.T) {
	renderer := &stubRenderer{}
	r := &Reconciler{
		Renderer: renderer,
		Gate:     &stubGate{dummy: map[string]bool{"f1": true}},
		Locker:   newStubLocker(),
	}
	if _, err := r.Reconcile(context.Background(), req("f1")); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if renderer.renderCalls != 1 {
		t.Fatalf("expected render to run under dummy, got %d calls", renderer.renderCalls)
	}
	if renderer.pushCalls != 0 {
		t.Fatalf("expected push to be skipped under dummy, got %d calls", renderer.pushCalls)
	}
}

func TestReconcilePushFailureNeverEscapesTick(t *testing.T) {
	renderer := &stubRenderer{pushErr: errors.New("device unreachable")}
	r := &Reconciler{
		Renderer: renderer,
		Gate:     &stubGate{},
		Locker:   newStubLocker(),
	}
	if _, err := r.Reconcile(context.Background(), req("f1")); err != nil {
		t.Fatalf("expected push failure to be absorbed, got error: %v", err)
	}
}

func TestReconcileRenderFailureNeverEscapesTick(t *testing.T) {
	renderer := &stubRenderer{renderErr: errors.New("decode failed")}
	r := &Reconciler{
		Renderer: renderer,
		Gate:     &stubGate{},
		Locker:   newStubLocker(),
	}
	if _, err := r.Reconcile(context.Background(), req("f1")); err != nil {
		t.Fatalf("expected render failure to be absorbed, got error: %v", err)
	}
	if renderer.pushCalls != 0 {
		t.Fatalf("expected push to be skipped after a render failure, got %d calls", renderer.pushCalls)
	}
}
