package can

import "github.com/cockroachdb/errors"

var (
	// ErrOutOfRange reports a bit range that addresses bytes beyond the buffer or message.
	ErrOutOfRange = errors.New("bit range out of range")
	// ErrBufferTooSmall reports a buffer shorter than the layout or message requires.
	ErrBufferTooSmall = errors.New("buffer too small")
	// ErrDivideByZero reports a physical to raw conversion with a zero factor.
	ErrDivideByZero = errors.New("scaling factor is zero")
	// ErrInvalidLayout reports a malformed signal layout (size, start or float width).
	ErrInvalidLayout = errors.New("invalid signal layout")
)
