package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge store statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := setup(); err != nil {
		return err
	}

	stats, err := knowledgeStore.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Println(styleTitle.Render("Knowledge store"))
	cmd.Printf("  records: %d\n", stats.Total)

	if stats.Total == 0 {
		return nil
	}

	cmd.Println("\n  by tag:")
	for _, tag := range domain.AllSourceTags() {
		if count := stats.BySourceTag[tag]; count > 0 {
			cmd.Printf("    %s %d\n", styleTag.Render(fmt.Sprintf("%-15s", tag)), count)
		}
	}

	files := make([]string, 0, len(stats.BySourceFile))
	for file := range stats.BySourceFile {
		files = append(files, file)
	}
	sort.Strings(files)

	cmd.Println("\n  by file:")
	for _, file := range files {
		cmd.Printf("    %-30s %d\n", file, stats.BySourceFile[file])
	}
	return nil
}
