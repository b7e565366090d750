package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/keysweep/keysweep/internal/config"
	"github.com/keysweep/keysweep/internal/runner"
	"github.com/keysweep/keysweep/pkg/version"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vietddude/stylelog"
)

var opts config.Options

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"API", []string{"model", "api-base", "timeout"}},
	{"RATE-LIMIT", []string{"concurrency"}},
	{"OUTPUT", []string{"output", "format", "success", "quiet", "no-color", "verbose", "on-valid"}},
}

var rootCmd = &cobra.Command{
	Use:     "keysweep <keyfile> [flags]",
	Short:   "Batch validator for Gemini API keys",
	Version: version.Version,
	Long: `keysweep validates batches of Gemini API keys by sending one minimal
generateContent request per key and classifying each response. It writes
a CSV or JSON report of every probe and collects the valid keys into a
separate list.`,
	Example: `  keysweep keys.txt
  keysweep keys.txt -c 50 -t 5s
  keysweep keys.txt -m gemini-2.0-flash
  keysweep keys.txt -o report.json --format json
  keysweep keys.txt -s valid.txt -q
  keysweep keys.txt --on-valid "notify-send {key}"`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			_ = cmd.Help()
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("key file required: pass the path of a file with one key per line")
		}
		// Environment defaults apply only when the flag was not set
		// explicitly (.env files are honored via godotenv autoload).
		if !cmd.Flags().Changed("model") {
			if v := os.Getenv("KEYSWEEP_MODEL"); v != "" {
				opts.Model = v
			}
		}
		if !cmd.Flags().Changed("api-base") {
			if v := os.Getenv("KEYSWEEP_API_BASE"); v != "" {
				opts.APIBase = v
			}
		}
		if opts.Concurrency < 1 {
			return fmt.Errorf("--concurrency must be at least 1")
		}
		if opts.Timeout <= 0 {
			return fmt.Errorf("--timeout must be positive")
		}
		if opts.OutputFormat != "csv" && opts.OutputFormat != "json" {
			return fmt.Errorf("--format must be one of: csv, json")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts.KeyFile = args[0]
		setupLogging()
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.Run(ctx, &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()

	// API
	f.StringVarP(&opts.Model, "model", "m", config.DefaultModel, "Model probed by each validation request")
	f.StringVar(&opts.APIBase, "api-base", config.DefaultAPIBase, "Base URL of the generateContent API")
	f.DurationVarP(&opts.Timeout, "timeout", "t", config.DefaultTimeout, "Connect/read timeout per request attempt")

	// Rate limiting
	f.IntVarP(&opts.Concurrency, "concurrency", "c", config.DefaultConcurrency, "Maximum number of keys probed at once")

	// Output
	f.StringVarP(&opts.OutputFile, "output", "o", config.DefaultOutputFile, "Report file path (\"-\" for stdout)")
	f.StringVar(&opts.OutputFormat, "format", "csv", "Report format: csv, json")
	f.StringVarP(&opts.SuccessFile, "success", "s", config.DefaultSuccessFile, "File for valid keys (written only when at least one key is valid)")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Minimal output")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging (retry and backoff details)")

	// Hooks
	f.StringVar(&opts.OnValidCmd, "on-valid", "", "Shell command to run for each valid key (receives JSON on stdin)")

	// Custom help: categorized flags like httpx.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// An interrupt already printed its own message from the runner.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    opts.NoColor,
	})
}

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	// Show default for non-zero values.
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
    __
   / /_____  __  ________      _____  ___  ____
  / //_/ _ \/ / / / ___/ | /| / / _ \/ _ \/ __ \
 / ,< /  __/ /_/ (__  )| |/ |/ /  __/  __/ /_/ /
/_/|_|\___/\__, /____/ |__/|__/\___/\___/ .___/   %s
          /____/                       /_/

`, ver)
}
