package sensor

// OnDemandPollBudget bounds how many POLL iterations ReadOnDemand will run
// before giving up, so a wedged adapter cannot stall the tick that is
// servicing a READ_SENSOR command indefinitely.
const OnDemandPollBudget = 64

// ReadOnDemand drives Start/Poll to completion (bounded by
// OnDemandPollBudget) and, on success, fills dst with the runtime-id-prefixed
// sample the same way the periodic state machine does. It never touches Seq,
// PeriodMs, Streaming, or SM — it is a side channel independent of the
// periodic schedule. ok is false on adapter error or on exhausting the
// budget while still busy.
func (s *State) ReadOnDemand(dst []byte) (n int, ok bool) {
	status := s.Adapter.Start()
	for i := 0; status == StatusBusy && i < OnDemandPollBudget; i++ {
		status = s.Adapter.Poll()
	}
	if status != StatusReady {
		return 0, false
	}

	limit := len(dst) - 1
	if limit < 0 {
		limit = 0
	}
	if limit > MaxPayload-1 {
		limit = MaxPayload - 1
	}

	var sample [MaxPayload]byte
	filled := s.Adapter.Fill(sample[:limit], limit)
	if filled == 0 {
		return 0, false
	}

	dst[0] = s.RuntimeID
	copy(dst[1:], sample[:filled])
	return filled + 1, true
}
