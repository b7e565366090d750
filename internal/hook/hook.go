package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/keysweep/keysweep/internal/probe"
)

// resultJSON is the JSON payload sent to the hook command via stdin.
type resultJSON struct {
	Key            string  `json:"key"`
	Status         string  `json:"status"`
	HTTPStatus     int     `json:"http_status"`
	Detail         string  `json:"detail"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Runner executes a shell command for each valid credential.
type Runner struct {
	cmd   string
	quiet bool
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd string, quiet bool) *Runner {
	return &Runner{cmd: cmd, quiet: quiet}
}

// Run executes the hook command with the result as JSON on stdin.
// The command runs with a 30-second timeout. Errors are logged but
// do not halt the sweep.
func (r *Runner) Run(result *probe.Result) {
	payload := resultJSON{
		Key:            result.Key,
		Status:         string(result.Category),
		HTTPStatus:     result.HTTPStatus,
		Detail:         result.Detail,
		ElapsedSeconds: result.ElapsedSeconds,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[hook] marshal error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shell, args := shellCommand()
	// Replace {key}, {status}, {http}, {elapsed} placeholders.
	expanded := r.cmd
	expanded = strings.ReplaceAll(expanded, "{key}", result.Key)
	expanded = strings.ReplaceAll(expanded, "{status}", string(result.Category))
	expanded = strings.ReplaceAll(expanded, "{http}", fmt.Sprintf("%d", result.HTTPStatus))
	expanded = strings.ReplaceAll(expanded, "{elapsed}", fmt.Sprintf("%.2f", result.ElapsedSeconds))

	cmd := exec.CommandContext(ctx, shell, append(args, expanded)...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	if err != nil {
		if !r.quiet {
			fmt.Fprintf(os.Stderr, "[hook] error: %v\n", err)
		}
		return
	}

	if len(output) > 0 && !r.quiet {
		fmt.Fprintf(os.Stderr, "[hook] %s", output)
	}
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
