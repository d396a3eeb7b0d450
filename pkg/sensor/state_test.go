package sensor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brahimab8/powerscope-core/pkg/sensor"
)

// scriptedAdapter replays a fixed sequence of Start/Poll statuses and
// always fills a constant-size canned sample, letting tests drive every
// branch of the state machine deterministically.
type scriptedAdapter struct {
	startSeq []sensor.Status
	pollSeq  []sensor.Status
	sample   []byte

	startCalls int
	pollCalls  int
	fillCalls  int
	fillReturn int // -1 means "return len(sample)"
}

func (a *scriptedAdapter) Start() sensor.Status {
	s := a.startSeq[a.startCalls]
	a.startCalls++
	return s
}

func (a *scriptedAdapter) Poll() sensor.Status {
	s := a.pollSeq[a.pollCalls]
	a.pollCalls++
	return s
}

func (a *scriptedAdapter) Fill(dst []byte, max int) int {
	a.fillCalls++
	n := len(a.sample)
	if a.fillReturn >= 0 {
		n = a.fillReturn
	}
	if n > max {
		n = max
	}
	copy(dst, a.sample[:n])
	return n
}

func (a *scriptedAdapter) SampleSize() int { return len(a.sample) }
func (a *scriptedAdapter) TypeID() uint8   { return 0x01 }

type recordingSender struct {
	sent [][]byte
	seqs []uint32
	ts   []uint32
}

func (r *recordingSender) SendStream(payload []byte, tsMs, seq uint32) bool {
	cp := append([]byte(nil), payload...)
	r.sent = append(r.sent, cp)
	r.seqs = append(r.seqs, seq)
	r.ts = append(r.ts, tsMs)
	return true
}

func TestAdvance_ReadyPathEmitsAndResetsToIdle(t *testing.T) {
	a := &scriptedAdapter{startSeq: []sensor.Status{sensor.StatusReady}, sample: []byte{0xAA, 0xBB}, fillReturn: -1}
	s := sensor.NewState(7, a, 100, 46)
	s.StartStreaming()
	tx := &recordingSender{}

	s.Advance(0, tx) // stays IDLE: LastEmitMs=0, now=0 -> elapsed=0 < period 100
	require.Equal(t, sensor.SMIdle, s.SM)

	s.Advance(100, tx) // elapsed=100>=100 -> SENSOR_START
	require.Equal(t, sensor.SMSensorStart, s.SM)

	s.Advance(100, tx) // SENSOR_START -> adapter Ready -> READY
	require.Equal(t, sensor.SMReady, s.SM)

	s.Advance(100, tx) // READY -> emit, back to IDLE
	require.Equal(t, sensor.SMIdle, s.SM)

	require.Len(t, tx.sent, 1)
	require.Equal(t, []byte{7, 0xAA, 0xBB}, tx.sent[0])
	require.Equal(t, uint32(0), tx.seqs[0])
	require.Equal(t, uint32(1), s.Seq)
	require.Equal(t, uint32(100), s.LastEmitMs)
}

func TestAdvance_BusyPathGoesThroughPoll(t *testing.T) {
	a := &scriptedAdapter{
		startSeq: []sensor.Status{sensor.StatusBusy},
		pollSeq:  []sensor.Status{sensor.StatusBusy, sensor.StatusReady},
		sample:   []byte{0x01},
	}
	s := sensor.NewState(1, a, 10, 46)
	s.StartStreaming()
	tx := &recordingSender{}

	s.SM = sensor.SMSensorStart
	s.Advance(0, tx)
	require.Equal(t, sensor.SMSensorPoll, s.SM)

	s.Advance(0, tx) // poll -> busy, stays in SENSOR_POLL
	require.Equal(t, sensor.SMSensorPoll, s.SM)

	s.Advance(0, tx) // poll -> ready
	require.Equal(t, sensor.SMReady, s.SM)
}

func TestAdvance_ErrorStopsStreaming(t *testing.T) {
	a := &scriptedAdapter{startSeq: []sensor.Status{sensor.StatusError}}
	s := sensor.NewState(1, a, 10, 46)
	s.StartStreaming()
	tx := &recordingSender{}

	s.SM = sensor.SMSensorStart
	s.Advance(0, tx)
	require.Equal(t, sensor.SMError, s.SM)

	s.Advance(0, tx)
	require.Equal(t, sensor.SMIdle, s.SM)
	require.False(t, s.Streaming)
}

func TestAdvance_ZeroFillRetriesNextPeriod(t *testing.T) {
	a := &scriptedAdapter{startSeq: []sensor.Status{sensor.StatusReady}, sample: []byte{}, fillReturn: 0}
	s := sensor.NewState(1, a, 10, 46)
	s.StartStreaming()
	tx := &recordingSender{}

	s.SM = sensor.SMReady
	s.Advance(0, tx)
	require.Equal(t, sensor.SMIdle, s.SM)
	require.Empty(t, tx.sent)
}

func TestStartStreaming_ResetsSeq(t *testing.T) {
	a := &scriptedAdapter{}
	s := sensor.NewState(1, a, 10, 46)
	s.Seq = 42
	s.SM = sensor.SMError
	s.StartStreaming()
	require.Equal(t, uint32(0), s.Seq)
	require.Equal(t, sensor.SMIdle, s.SM)
	require.True(t, s.Streaming)
}

func TestReadOnDemand_ReadyImmediately(t *testing.T) {
	a := &scriptedAdapter{startSeq: []sensor.Status{sensor.StatusReady}, sample: []byte{1, 2, 3}, fillReturn: -1}
	s := sensor.NewState(9, a, 10, 46)

	dst := make([]byte, sensor.MaxPayload)
	n, ok := s.ReadOnDemand(dst)
	require.True(t, ok)
	require.Equal(t, []byte{9, 1, 2, 3}, dst[:n])
}

func TestReadOnDemand_ErrorReturnsFalse(t *testing.T) {
	a := &scriptedAdapter{startSeq: []sensor.Status{sensor.StatusError}}
	s := sensor.NewState(9, a, 10, 46)

	_, ok := s.ReadOnDemand(make([]byte, sensor.MaxPayload))
	require.False(t, ok)
}

func TestReadOnDemand_ExhaustsBudgetOnPerpetualBusy(t *testing.T) {
	busy := make([]sensor.Status, sensor.OnDemandPollBudget+1)
	for i := range busy {
		busy[i] = sensor.StatusBusy
	}
	a := &scriptedAdapter{startSeq: []sensor.Status{sensor.StatusBusy}, pollSeq: busy}
	s := sensor.NewState(1, a, 10, 46)

	_, ok := s.ReadOnDemand(make([]byte, sensor.MaxPayload))
	require.False(t, ok)
}
