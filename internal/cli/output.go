package cli

import (
	"fmt"
	"io"
	"os"
)

// outWriter receives everything a command prints. It stays os.Stdout
// in production; test helpers swap in a buffer.
var outWriter io.Writer = os.Stdout

func out(format string, a ...any) {
	_, _ = fmt.Fprintf(outWriter, format, a...)
}

func outln(a ...any) {
	_, _ = fmt.Fprintln(outWriter, a...)
}
