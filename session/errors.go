package session

import "github.com/pkg/errors"

// Kind classifies a Session operation failure per spec.md §7's taxonomy.
// Protocol-level failures (malformed/unsupported/out-of-sequence packets)
// never surface through this type — those are always soft: logged and
// absorbed on the receive loop, never returned to a caller.
type Kind string

const (
	KindPermission Kind = "permission" // socket/bind denied by the OS
	KindConnection Kind = "connection" // socket absent/closed, receive already active/inactive, send failure
	KindResource   Kind = "resource"   // allocation failure for session, buffer, or matrix; reassembly buffer already present or absent
	KindValue      Kind = "value"      // invalid packet size or payload size at buffer creation
	KindType       Kind = "type"       // non-callable callback registered
)

// Error wraps a Session operation failure with its taxonomy Kind and the
// operation name that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return e.Op + ": " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinel causes wrapped by Error for the documented failure modes in
// spec.md §4.6's operation table.
var (
	ErrSocketExists = errors.New("socket already exists")
	ErrNoSocket     = errors.New("no socket")
	ErrBufferExists = errors.New("buffer already exists")
	ErrNoBuffer     = errors.New("no buffer")
	ErrReceiving    = errors.New("currently receiving")
	ErrNotReceiving = errors.New("not receiving")
)
