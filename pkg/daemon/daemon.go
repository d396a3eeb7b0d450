// Package daemon runs a core's tick loop and, optionally, a telemetry
// command bridge as one unit with a single Stop, the way the teacher's
// Service owns its USOCK connection and Redis command watcher together.
package daemon

import (
	"sync"
	"time"

	"github.com/brahimab8/powerscope-core/pkg/core"
)

// Ticker is the narrow slice of core.Core the tick loop needs.
type Ticker interface {
	Tick()
}

// Bridge is the narrow slice of telemetry.CommandBridge the daemon needs.
type Bridge interface {
	Run()
	Stop()
}

// Daemon ticks a core on a fixed interval in its own goroutine and, if a
// Bridge is attached, runs it concurrently until Stop.
type Daemon struct {
	core     Ticker
	interval time.Duration
	bridge   Bridge

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Daemon that ticks c every interval. bridge may be nil.
func New(c *core.Core, interval time.Duration, bridge Bridge) *Daemon {
	return &Daemon{
		core:     c,
		interval: interval,
		bridge:   bridge,
		stopCh:   make(chan struct{}),
	}
}

// Run blocks, ticking the core on schedule and running the bridge (if any)
// until Stop is called. It is meant to be the last call in main.
func (d *Daemon) Run() {
	if d.bridge != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.bridge.Run()
		}()
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.core.Tick()
		}
	}
}

// Stop halts the tick loop and the bridge, and waits for the bridge
// goroutine to return.
func (d *Daemon) Stop() {
	close(d.stopCh)
	if d.bridge != nil {
		d.bridge.Stop()
	}
	d.wg.Wait()
}
