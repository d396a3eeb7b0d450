// Package dispatch implements the opcode -> (parser, handler) table and the
// reference command set from spec.md §4.6 and §4.8.
package dispatch

// ErrorCode is the single NACK payload byte surfaced to the host.
type ErrorCode uint8

const (
	ErrInvalidCmd   ErrorCode = 0x01
	ErrInvalidLen   ErrorCode = 0x02
	ErrInvalidValue ErrorCode = 0x03
	ErrSensorBusy   ErrorCode = 0x04
	ErrOverflow     ErrorCode = 0x05
	ErrInternal     ErrorCode = 0x06
)

// Parser decodes a command payload and returns the decoded value.
// It returns false if the payload's length or contents are invalid; it must
// validate length exactly (no implicit truncation).
type Parser func(payload []byte) (decoded interface{}, ok bool)

// Handler executes a decoded command against core state, writing up to
// len(resp) bytes into resp and returning how many were written. It returns
// true for ACK, false for NACK.
type Handler func(decoded interface{}, resp []byte) (respLen int, ok bool)

// Entry is one opcode's parser/handler pair. A Table slot with a nil Parser
// or Handler signals "unknown opcode" to Dispatch.
type Entry struct {
	Parser  Parser
	Handler Handler
}

// Table is a fixed, opcode-indexed dispatch table.
type Table [256]Entry

// Dispatch looks up cmdID, runs its parser over payload, and on success runs
// its handler with a resp buffer. It mirrors spec.md §4.6 exactly: unknown
// opcode or parser failure return false with respLen 0; the handler's own
// return value is otherwise passed through unchanged.
func (t *Table) Dispatch(cmdID uint8, payload []byte, resp []byte) (respLen int, ok bool) {
	entry := t[cmdID]
	if entry.Parser == nil || entry.Handler == nil {
		return 0, false
	}
	decoded, ok := entry.Parser(payload)
	if !ok {
		return 0, false
	}
	return entry.Handler(decoded, resp)
}

// Register installs a parser/handler pair at cmdID, overwriting any
// existing entry. This is how a target extends the command set without
// touching the protocol engine.
func (t *Table) Register(cmdID uint8, p Parser, h Handler) {
	t[cmdID] = Entry{Parser: p, Handler: h}
}
