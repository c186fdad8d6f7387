package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

var (
	queryTopK          int
	queryMinSimilarity float64
	queryTags          []string
	queryJSON          bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve stored knowledge by semantic similarity",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", domain.DefaultTopK, "maximum number of results")
	queryCmd.Flags().Float64Var(&queryMinSimilarity, "min-similarity", domain.DefaultMinSimilarity, "similarity floor in [-1, 1]")
	queryCmd.Flags().StringSliceVar(&queryTags, "tag", nil, "restrict to source tags (repeatable)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
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

	tags := make([]domain.SourceTag, 0, len(queryTags))
	for _, raw := range queryTags {
		tag, err := domain.ParseSourceTag(raw)
		if err != nil {
			return err
		}
		tags = append(tags, tag)
	}

	results, err := retrieval.RetrieveContext(cmd.Context(), args[0], domain.SearchOptions{
		TopK:          queryTopK,
		MinSimilarity: queryMinSimilarity,
		SourceTags:    tags,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputResultsJSON(cmd, results)
	}
	outputResultsStyled(cmd, results)
	return nil
}

func outputResultsJSON(cmd *cobra.Command, results []domain.RetrievalResult) error {
	type jsonResult struct {
		SourceTag  string  `json:"source_tag"`
		SourceFile string  `json:"source_file"`
		ChunkIndex int     `json:"chunk_index"`
		Similarity float64 `json:"similarity"`
		Text       string  `json:"text"`
	}

	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{
			SourceTag:  string(r.Record.SourceTag),
			SourceFile: r.Record.SourceFile,
			ChunkIndex: r.Record.ChunkIndex,
			Similarity: r.Similarity,
			Text:       r.Record.Text,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResultsStyled(cmd *cobra.Command, results []domain.RetrievalResult) {
	if len(results) == 0 {
		cmd.Println("No sufficiently similar knowledge found.")
		return
	}

	cmd.Println(styleTitle.Render("Results"))
	cmd.Println()
	for i, result := range results {
		cmd.Printf("  [%d] %s %s %s\n", i+1,
			styleTag.Render("["+string(result.Record.SourceTag)+"]"),
			result.Record.SourceFile,
			styleScore.Render(fmt.Sprintf("(%.2f)", result.Similarity)))
		cmd.Printf("      %s\n\n", snippet(result.Record.Text, 200))
	}
}

// snippet truncates text for terminal display on a rune boundary.
func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
