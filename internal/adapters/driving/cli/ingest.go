package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

var (
	ingestDir          bool
	ingestTag          string
	ingestReIngest     bool
	ingestChunkSize    int
	ingestChunkOverlap int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a document (or directory) into the knowledge store",
	Long: `Reads a document, splits it into overlapping chunks, embeds each chunk
and stores the results. With --dir, every eligible file in the directory
is ingested and its source tag inferred from the filename unless --tag
is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDir, "dir", false, "treat path as a directory")
	ingestCmd.Flags().StringVar(&ingestTag, "tag", "", "source tag (style_guide, example_post, knowledge_base, feedback, other)")
	ingestCmd.Flags().BoolVar(&ingestReIngest, "re-ingest", false, "replace existing records for the same file")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "target chunk size in characters")
	ingestCmd.Flags().IntVar(&ingestChunkOverlap, "chunk-overlap", 0, "overlap between chunks in characters")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}

	opts := domain.IngestOptions{
		ChunkSize:    ingestChunkSize,
		ChunkOverlap: ingestChunkOverlap,
		ReIngest:     ingestReIngest,
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = configStore.GetInt("chunking.size")
	}
	if opts.ChunkOverlap == 0 {
		opts.ChunkOverlap = configStore.GetInt("chunking.overlap")
	}

	var tag domain.SourceTag
	if ingestTag != "" {
		var err error
		tag, err = domain.ParseSourceTag(ingestTag)
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()

	if ingestDir {
		result, err := ingestService.IngestDirectory(ctx, args[0], domain.DirectoryOptions{
			IngestOptions: opts,
			ForceTag:      tag,
		})
		if err != nil {
			return err
		}
		printDirectoryResult(cmd, result)
		if !result.Success {
			return fmt.Errorf("%d of %d documents failed", failedCount(result), len(result.Results))
		}
		return nil
	}

	opts.SourceTag = tag
	result, err := ingestService.Ingest(ctx, args[0], opts)
	if err != nil {
		return err
	}
	printIngestResult(cmd, result)
	if !result.Success {
		return fmt.Errorf("ingestion failed: %s", strings.Join(result.Errors, "; "))
	}
	return nil
}

func printIngestResult(cmd *cobra.Command, result *domain.IngestResult) {
	if result.Success {
		cmd.Printf("%s %s [%s]\n", styleScore.Render("ok"), result.FileName, styleTag.Render(string(result.SourceTag)))
	} else {
		cmd.Printf("%s %s: %s\n", styleError.Render("failed"), result.FileName, strings.Join(result.Errors, "; "))
	}
	cmd.Println(styleMuted.Render(fmt.Sprintf("   %d pages, %d chars, %d chunks, %d embeddings, %d tokens",
		result.Stats.Pages, result.Stats.Characters, result.Stats.Chunks,
		result.Stats.EmbeddingsStored, result.Stats.Tokens)))
}

func printDirectoryResult(cmd *cobra.Command, result *domain.DirectoryResult) {
	for i := range result.Results {
		printIngestResult(cmd, &result.Results[i])
	}
	if len(result.Unmatched) > 0 {
		cmd.Println(styleWarn.Render(fmt.Sprintf("no tag rule matched: %s (tagged as other)",
			strings.Join(result.Unmatched, ", "))))
	}
	cmd.Printf("\ningested %d documents: %d chunks, %d embeddings, %d tokens\n",
		len(result.Results), result.Stats.Chunks, result.Stats.EmbeddingsStored, result.Stats.Tokens)
}

func failedCount(result *domain.DirectoryResult) int {
	failed := 0
	for _, r := range result.Results {
		if !r.Success {
			failed++
		}
	}
	return failed
}
