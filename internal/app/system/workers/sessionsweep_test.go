package workers

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/dashsession"
	"github.com/dalemusser/channelhub/internal/app/system/tabload"
	"go.uber.org/zap"
)

func TestSessionSweeper_EndsIdleSessions(t *testing.T) {
	reg := dashsession.NewRegistry(func(string, tabload.Scope) ([]tabload.Tab, bool) { return nil, false }, zap.NewNop())
	reg.Open(tabload.Scope{UserID: "u1"})

	w := NewSessionSweeper(reg, zap.NewNop(), 5*time.Millisecond, time.Nanosecond)
	w.Start()
	defer w.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for reg.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not end the idle session")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type countingPruner struct{ calls atomic.Int32 }

func (p *countingPruner) Prune() int {
	p.calls.Add(1)
	return 0
}

func TestSessionSweeper_RunsPruners(t *testing.T) {
	reg := dashsession.NewRegistry(func(string, tabload.Scope) ([]tabload.Tab, bool) { return nil, false }, zap.NewNop())
	p := &countingPruner{}

	w := NewSessionSweeper(reg, zap.NewNop(), 5*time.Millisecond, time.Hour)
	w.AlsoPrune(p)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() == 0 {
		if time.Now().After(deadline) {
			w.Stop()
			t.Fatal("pruner never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
}
