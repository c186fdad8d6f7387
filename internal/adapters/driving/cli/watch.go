package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
	"github.com/inkwell-labs/corpus-cli/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and re-ingest documents as they change",
	Long: `Watches a directory and re-ingests eligible documents on create or
write, with replace semantics, until interrupted. Source tags are
inferred from filenames.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}

	dir := args[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("watching %s (%s), ctrl-c to stop\n", dir,
		strings.Join(readerRegistry.Extensions(), " "))

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nstopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !eligible(event.Name) {
				continue
			}
			handleWatchEvent(ctx, cmd, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// eligible reports whether a registered reader handles the file.
func eligible(path string) bool {
	_, err := readerRegistry.ReaderFor(path)
	return err == nil
}

func handleWatchEvent(ctx context.Context, cmd *cobra.Command, path string) {
	name := filepath.Base(path)
	tag, matched := domain.DefaultTagRules().Infer(name)
	if !matched {
		cmd.Println(styleWarn.Render(fmt.Sprintf("no tag rule matched %s, using %s", name, tag)))
	}

	result, err := ingestService.Ingest(ctx, path, domain.IngestOptions{
		SourceTag: tag,
		ReIngest:  true,
	})
	if err != nil {
		cmd.Println(styleError.Render(fmt.Sprintf("failed %s: %v", name, err)))
		return
	}
	printIngestResult(cmd, result)
}
