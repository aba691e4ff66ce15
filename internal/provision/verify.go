package provision

import (
	"context"
	"fmt"

	"github.com/russellpierce/local-models-boilerplate/internal/config"
	"github.com/russellpierce/local-models-boilerplate/internal/console"
)

// verifyPrompt is small on purpose: the point is proving the model
// loads and answers, not judging the answer.
const verifyPrompt = "Reply with the single word OK."

// Verify smoke-tests a provisioned host: the server must answer the API
// preflight, and every installed model asset must produce a completion.
// Models that were never pulled (insufficient GPU memory) are reported
// and skipped, not failed.
func Verify(ctx context.Context, cfg config.Config, server Server) error {
	console.Section("Verification")

	console.Infof("checking server at %s", cfg.OllamaBaseURL)
	if err := server.WaitReady(ctx, cfg.HealthTimeout()); err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	console.Successf("server is reachable")

	verified := 0
	for _, name := range ModelAssets {
		present, err := server.HasModel(ctx, name)
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}
		if !present {
			console.Warningf("%s is not installed, skipping", name)
			continue
		}

		console.Infof("querying %s", name)
		out, err := server.Generate(ctx, name, verifyPrompt)
		if err != nil {
			return fmt.Errorf("smoke test %s: %w", name, err)
		}
		console.Successf("%s answered (%d chars)", name, len(out))
		verified++
	}

	if verified == 0 {
		console.Warningf("no model assets installed; server verified without a model smoke test")
	}
	return nil
}
