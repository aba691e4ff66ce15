package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/russellpierce/local-models-boilerplate/internal/journal"
)

var (
	historyLimit int
	historySteps bool
)

var historyCmd = &cobra.Command{
	Use:           "history",
	Short:         "Show past provisioning runs from the journal",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
	historyCmd.Flags().BoolVar(&historySteps, "steps", false, "include per-step outcomes")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tSTATUS\tGPU MiB")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			r.ID, r.StartedAt.Local().Format(time.RFC3339), r.Status, r.GPUMemMiB)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !historySteps {
		return nil
	}

	for _, r := range runs {
		steps, err := store.Steps(cmd.Context(), r.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nrun %s:\n", r.ID)
		for _, s := range steps {
			line := fmt.Sprintf("  %2d. %-18s %-8s %s", s.Seq, s.Step, s.Status, s.Duration.Round(time.Millisecond))
			if s.Message != "" {
				line += "  " + s.Message
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
	}
	return nil
}
