//go:build !windows

package runner

import (
	"os"
	"syscall"
)

// sendInterrupt re-raises SIGINT so that a Ctrl+C read from raw-mode
// stdin reaches the regular signal handler chain.
func sendInterrupt() {
	syscall.Kill(os.Getpid(), syscall.SIGINT)
}
