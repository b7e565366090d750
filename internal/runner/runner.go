package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/keysweep/keysweep/internal/config"
	"github.com/keysweep/keysweep/internal/hook"
	"github.com/keysweep/keysweep/internal/keyfile"
	"github.com/keysweep/keysweep/internal/output"
	"github.com/keysweep/keysweep/internal/probe"
	"github.com/keysweep/keysweep/pkg/version"
)

// Run executes the full sweep pipeline: load the key list, probe every
// key under the concurrency ceiling, then write the report, the
// success list, and a summary. An interrupt aborts outstanding probes
// and leaves no report behind.
func Run(ctx context.Context, opts *config.Options) error {
	// 1. Load keys.
	keys, err := keyfile.Load(opts.KeyFile)
	if err != nil {
		return fmt.Errorf("loading key file: %w", err)
	}
	if len(keys) == 0 {
		fmt.Fprintf(os.Stderr, "[!] No keys found in %s, nothing to do\n", opts.KeyFile)
		return nil
	}

	// 2. Create HTTP requester and prober.
	requester, err := probe.NewRequester(opts)
	if err != nil {
		return fmt.Errorf("creating requester: %w", err)
	}
	prober := probe.NewProber(requester)

	slog.Debug("sweep configured",
		"api_base", opts.APIBase,
		"model", opts.Model,
		"keys", len(keys),
		"concurrency", opts.Concurrency,
		"timeout", opts.Timeout,
	)

	// 3. Print banner.
	if !opts.Quiet {
		printBanner(opts, len(keys))
	}

	// 4. Stdin pause toggle (no-op when stdin is not a terminal).
	pauser, cleanup := startStdinToggle(opts.Quiet)
	defer cleanup()

	var hookRunner *hook.Runner
	if opts.OnValidCmd != "" {
		hookRunner = hook.NewRunner(opts.OnValidCmd, opts.Quiet)
	}

	progress := output.NewProgress(os.Stderr, len(keys), opts.Quiet, opts.NoColor)
	start := time.Now()

	// 5. Probe all keys.
	results, successSet := probe.RunPool(ctx, prober, keys, probe.PoolConfig{
		Concurrency: opts.Concurrency,
		Pauser:      pauser,
		OnResult: func(r probe.Result, done int) {
			progress.Print(&r, done)
			if hookRunner != nil && r.Category == probe.CategoryValid {
				hookRunner.Run(&r)
			}
		},
	})

	// 6. Interrupt: abort without flushing any artifact.
	if ctx.Err() != nil {
		fmt.Fprintf(os.Stderr, "\n[!] Interrupted — %d of %d probes completed, reports not written\n",
			len(results), len(keys))
		return ctx.Err()
	}

	// 7. Write the report in completion order.
	out, err := createWriter(opts)
	if err != nil {
		return fmt.Errorf("creating report writer: %w", err)
	}
	defer out.Close()

	if err := out.WriteHeader(); err != nil {
		return err
	}

	var stats output.Stats
	for i := range results {
		stats.Count(&results[i])
		if err := out.WriteResult(&results[i]); err != nil {
			return err
		}
	}
	stats.Duration = time.Since(start)

	if err := out.WriteFooter(stats); err != nil {
		return err
	}

	// 8. Write the success list (only when non-empty).
	if err := output.WriteSuccessFile(opts.SuccessFile, successSet); err != nil {
		return err
	}

	if !opts.Quiet {
		printSummary(opts, stats)
	}
	return nil
}

func createWriter(opts *config.Options) (output.Writer, error) {
	switch opts.OutputFormat {
	case "json":
		return output.NewJSONWriter(opts.OutputFile)
	default:
		return output.NewCSVWriter(opts.OutputFile)
	}
}

func printSummary(opts *config.Options, stats output.Stats) {
	fmt.Fprintf(os.Stderr,
		"\nCompleted: %d keys | Valid: %d | Invalid: %d | Model not found: %d | Errors: %d | Duration: %s\n",
		stats.Total,
		stats.Valid,
		stats.Invalid,
		stats.ModelNotFound,
		stats.Errors,
		stats.Duration.Round(time.Millisecond),
	)
	if opts.OutputFile != "-" {
		fmt.Fprintf(os.Stderr, "[+] Report written to %s\n", opts.OutputFile)
	}
	if stats.Valid > 0 {
		fmt.Fprintf(os.Stderr, "[+] %d valid key(s) saved to %s\n", stats.Valid, opts.SuccessFile)
	}
}

func printBanner(opts *config.Options, keyCount int) {
	const (
		cyan   = "\033[36m"
		white  = "\033[97m"
		dim    = "\033[2m"
		yellow = "\033[33m"
		reset  = "\033[0m"
	)

	c, w, d, y, rs := cyan, white, dim, yellow, reset
	if opts.NoColor {
		c, w, d, y, rs = "", "", "", "", ""
	}

	fmt.Fprintf(os.Stderr, `
%s    __                                                %s
%s   / /_____  __  ________      _____  ___  ____      %s
%s  / //_/ _ \/ / / / ___/ | /| / / _ \/ _ \/ __ \     %s
%s / ,< /  __/ /_/ (__  )| |/ |/ /  __/  __/ /_/ /     %s
%s/_/|_|\___/\__, /____/ |__/|__/\___/\___/ .___/      %s %sv%s%s
%s          /____/                       /_/           %s
%s    Batch API Key Validator                          %s
%s    for Gemini generateContent endpoints             %s
`,
		c, rs,
		c, rs,
		c, rs,
		c, rs,
		c, rs, d, version.Version, rs,
		c, rs,
		w, rs,
		d, rs,
	)

	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n", d, rs)
	fmt.Fprintf(os.Stderr, "  %sEndpoint:%s     %s%s%s\n", d, rs, w, opts.APIBase, rs)
	fmt.Fprintf(os.Stderr, "  %sModel:%s        %s%s%s\n", d, rs, w, opts.Model, rs)
	fmt.Fprintf(os.Stderr, "  %sKeys:%s         %s%d%s\n", d, rs, w, keyCount, rs)
	fmt.Fprintf(os.Stderr, "  %sConcurrency:%s  %s%d%s\n", d, rs, y, opts.Concurrency, rs)
	fmt.Fprintf(os.Stderr, "  %sTimeout:%s      %s%s%s\n", d, rs, w, opts.Timeout, rs)
	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n\n", d, rs)
}
