package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

var (
	deleteFile string
	deleteTag  string
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete knowledge records by source file or source tag",
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteFile, "file", "", "delete all records for this source file")
	deleteCmd.Flags().StringVar(&deleteTag, "tag", "", "delete all records for this source tag")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, _ []string) error {
	if (deleteFile == "") == (deleteTag == "") {
		return errors.New("exactly one of --file or --tag is required")
	}

	if err := setup(); err != nil {
		return err
	}

	if deleteFile != "" {
		deleted, err := knowledgeStore.DeleteByFile(cmd.Context(), deleteFile)
		if err != nil {
			return err
		}
		cmd.Printf("deleted %d records for %s\n", deleted, deleteFile)
		return nil
	}

	tag, err := domain.ParseSourceTag(deleteTag)
	if err != nil {
		return err
	}
	deleted, err := knowledgeStore.DeleteBySource(cmd.Context(), tag)
	if err != nil {
		return err
	}
	cmd.Printf("deleted %d records tagged %s\n", deleted, tag)
	return nil
}
