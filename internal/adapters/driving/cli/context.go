package cli

import (
	"github.com/spf13/cobra"
)

var (
	contextContentType string
	contextPlatform    string
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Print a comprehensive prompt bundle for a content type and platform",
	Long: `Runs the guidelines and examples retrieval presets and prints one
prompt-ready bundle: guidelines first, then examples, each entry with
its provenance header.`,
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVar(&contextContentType, "content-type", "post", "content type being drafted")
	contextCmd.Flags().StringVar(&contextPlatform, "platform", "linkedin", "target platform")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, _ []string) error {
	if err := setup(); err != nil {
		return err
	}

	initialized, err := retrieval.IsInitialized(cmd.Context())
	if err != nil {
		return err
	}
	if !initialized {
		cmd.Println(styleWarn.Render("knowledge store is empty; run 'corpus ingest' first"))
		return nil
	}

	bundle, err := retrieval.ComprehensiveContext(cmd.Context(), contextContentType, contextPlatform)
	if err != nil {
		return err
	}
	if bundle == "" {
		cmd.Println("No sufficiently similar knowledge found.")
		return nil
	}

	cmd.Println(bundle)
	return nil
}
