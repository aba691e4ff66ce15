// Package cli wires the cobra command surface around the orchestrator.
package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/russellpierce/local-models-boilerplate/internal/config"
	"github.com/russellpierce/local-models-boilerplate/internal/console"
	"github.com/russellpierce/local-models-boilerplate/internal/journal"
	"github.com/russellpierce/local-models-boilerplate/internal/ollama"
	"github.com/russellpierce/local-models-boilerplate/internal/provision"
	"github.com/russellpierce/local-models-boilerplate/internal/runner"
)

var (
	cfgPath string
	dryRun  bool
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:           "provision",
	Short:         "Install and configure a GPU-accelerated local Ollama server",
	Long:          "Acquires sudo once, probes GPU memory, installs the Ollama server as a systemd service and, when at least 12 GiB of GPU memory is available, pulls the llama3 and phi3 models.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runProvision,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print external commands instead of executing them")
}

// Execute runs the CLI and returns the process exit code: 0 on success,
// 1 on authentication failure or any aborted step. Errors carry their
// own context (step name, subcommand), so no prefix is added here.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		console.Errorf("%v", err)
		return 1
	}
	return 0
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var store *journal.Store
	if !dryRun {
		store, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var r runner.Runner = runner.NewExec()
	if dryRun {
		r = &runner.DryRunner{Print: func(line string) {
			console.Infof("dry-run: %s", line)
		}}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := provision.New(cfg, r, ollama.New(cfg.OllamaBaseURL), store)
	o.DryRun = dryRun
	return o.Run(ctx)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, err
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	console.SetLevel(cfg.LogLevel)
	return cfg, nil
}
