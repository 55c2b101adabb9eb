// Package notify abstracts user-facing notifications so the scanner never
// depends on how they are presented.
package notify

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Notifier receives user-facing messages from the scanner. Implementations
// must be safe to call from the single scan loop; no internal ordering
// guarantees are needed beyond call order.
type Notifier interface {
	// Info reports routine progress and summary messages.
	Info(format string, args ...interface{})
	// Error reports a recoverable per-extension or per-run failure.
	Error(format string, args ...interface{})
	// Modal reports a high-severity finding that demands attention. The
	// scanner emits at most one modal per extension over its lifetime.
	Modal(title, detail string)
}

// Console writes notifications to the terminal, colorized when attached to
// a TTY.
type Console struct{}

// NewConsole returns a terminal-backed notifier.
func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Info(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

func (c *Console) Error(format string, args ...interface{}) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s %s\n", red("error:"), fmt.Sprintf(format, args...))
}

func (c *Console) Modal(title, detail string) {
	banner := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Printf("\n%s\n%s\n\n", banner("🚨 "+title), detail)
}
