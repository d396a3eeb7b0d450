package daemon_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brahimab8/powerscope-core/pkg/core"
	"github.com/brahimab8/powerscope-core/pkg/daemon"
	"github.com/brahimab8/powerscope-core/pkg/transport/memtransport"
)

func TestDaemon_RunReturnsAfterStop(t *testing.T) {
	tp := memtransport.New()
	tp.SetReady(true)
	c := core.New(make([]byte, 64), make([]byte, 64), tp, func() uint32 { return 0 }, core.Config{
		MinPeriodMs: 1, MaxPeriodMs: 10000,
	})

	d := daemon.New(c, 5*time.Millisecond, nil)
	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	d.Stop()
	<-done
}

type fakeBridge struct {
	stopCh chan struct{}
	runs   int32
	stops  int32
}

func newFakeBridge() *fakeBridge { return &fakeBridge{stopCh: make(chan struct{})} }

func (f *fakeBridge) Run() {
	atomic.AddInt32(&f.runs, 1)
	<-f.stopCh
}

func (f *fakeBridge) Stop() {
	atomic.AddInt32(&f.stops, 1)
	close(f.stopCh)
}

func TestDaemon_StopStopsBridgeOnce(t *testing.T) {
	tp := memtransport.New()
	c := core.New(make([]byte, 64), make([]byte, 64), tp, func() uint32 { return 0 }, core.Config{
		MinPeriodMs: 1, MaxPeriodMs: 10000,
	})

	bridge := newFakeBridge()
	d := daemon.New(c, 5*time.Millisecond, bridge)
	stopped := make(chan struct{})
	go func() {
		d.Run()
		close(stopped)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&bridge.runs) == 1 }, time.Second, time.Millisecond)
	d.Stop()
	require.Equal(t, int32(1), atomic.LoadInt32(&bridge.stops))
}
