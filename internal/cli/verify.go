package cli

import (
	"github.com/spf13/cobra"

	"github.com/russellpierce/local-models-boilerplate/internal/ollama"
	"github.com/russellpierce/local-models-boilerplate/internal/provision"
)

var verifyCmd = &cobra.Command{
	Use:           "verify",
	Short:         "Smoke-test a provisioned host",
	Long:          "Checks that the Ollama server answers its API and that every installed model asset produces a completion.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return provision.Verify(cmd.Context(), cfg, ollama.New(cfg.OllamaBaseURL))
}
