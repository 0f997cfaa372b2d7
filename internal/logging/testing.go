package logging

import (
	"bytes"
	"context"
)

// NewTestContext builds a context carrying a logger that writes to the
// returned buffer, letting tests assert on what a component logged.
func NewTestContext(flags Flags) (context.Context, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(buf)
	Configure(l, flags)
	return WithLogger(context.Background(), l), buf
}
