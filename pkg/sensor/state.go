package sensor

// SM is the per-sensor acquisition state.
type SM uint8

const (
	SMIdle SM = iota
	SMSensorStart
	SMSensorPoll
	SMReady
	SMError
)

// MaxPayload bounds the STREAM payload a sensor may emit (runtime_id prefix
// plus sample bytes); it mirrors frame.MaxPayload without importing it, so
// this package stays free of a frame dependency.
const MaxPayload = 46

// Sender is the narrow slice of the TX engine the state machine needs: emit
// one STREAM frame carrying payload, tagged with seq and tsMs.
type Sender interface {
	SendStream(payload []byte, tsMs, seq uint32) bool
}

// State is one registered sensor's streaming state, owned by the core.
type State struct {
	RuntimeID uint8
	Adapter   Adapter

	Ready     bool
	Streaming bool

	Seq uint32
	SM  SM

	PeriodMs        uint16
	DefaultPeriodMs uint16
	MaxPayloadLen   uint16

	LastEmitMs uint32
}

// NewState builds the initial per-sensor state for a just-registered sensor.
func NewState(runtimeID uint8, adapter Adapter, defaultPeriodMs uint16, maxPayloadLen uint16) *State {
	return &State{
		RuntimeID:       runtimeID,
		Adapter:         adapter,
		Ready:           true,
		SM:              SMIdle,
		PeriodMs:        defaultPeriodMs,
		DefaultPeriodMs: defaultPeriodMs,
		MaxPayloadLen:   maxPayloadLen,
	}
}

// elapsedSince computes wrap-safe (now - last) on a uint32 millisecond
// counter, matching spec.md's wrap-safe subtraction requirement for now_ms.
func elapsedSince(now, last uint32) uint32 {
	return now - last
}

// Advance runs exactly one state transition, as required by the cooperative
// tick model: no internal loop, no recursion across states within a single
// call. It is only meaningful when Ready && Streaming; callers filter that.
func (s *State) Advance(now uint32, tx Sender) {
	switch s.SM {
	case SMIdle:
		if elapsedSince(now, s.LastEmitMs) >= uint32(s.PeriodMs) {
			s.SM = SMSensorStart
		}

	case SMSensorStart:
		switch s.Adapter.Start() {
		case StatusReady:
			s.SM = SMReady
		case StatusBusy:
			s.SM = SMSensorPoll
		case StatusError:
			s.SM = SMError
		}

	case SMSensorPoll:
		switch s.Adapter.Poll() {
		case StatusReady:
			s.SM = SMReady
		case StatusBusy:
			// remain in SMSensorPoll
		case StatusError:
			s.SM = SMError
		}

	case SMReady:
		s.emit(now, tx)

	case SMError:
		s.Streaming = false
		s.SM = SMIdle
	}
}

func (s *State) emit(now uint32, tx Sender) {
	limit := int(s.MaxPayloadLen) - 1
	if MaxPayload-1 < limit {
		limit = MaxPayload - 1
	}
	if limit < 0 {
		limit = 0
	}

	var sample [MaxPayload]byte
	filled := s.Adapter.Fill(sample[:limit], limit)
	if filled == 0 {
		s.SM = SMIdle
		return
	}

	var frame [MaxPayload]byte
	frame[0] = s.RuntimeID
	copy(frame[1:], sample[:filled])

	tx.SendStream(frame[:filled+1], now, s.Seq)
	s.Seq++
	s.LastEmitMs = now
	s.SM = SMIdle
}

// StartStreaming resets the sensor to begin a fresh streaming session, as
// required by the START_STREAM handler: streaming=true, sm=IDLE, seq=0.
func (s *State) StartStreaming() {
	s.Streaming = true
	s.SM = SMIdle
	s.Seq = 0
}

// StopStreaming halts future emissions without touching in-flight adapter
// calls; frames already enqueued continue to drain independently.
func (s *State) StopStreaming() {
	s.Streaming = false
	s.SM = SMIdle
}
