package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the task queue and the collected dataset",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if cfg.Database.URL == "" {
		slog.Error("status requires a configured database")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	counts, err := postgres.NewTaskRepo(db).CountByState(ctx)
	if err != nil {
		slog.Error("Failed to query tasks", "error", err)
		os.Exit(1)
	}

	stats, err := postgres.NewExhibitionRepo(db).Stats(ctx)
	if err != nil {
		slog.Error("Failed to query dataset stats", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "STATE\tTASKS")
	states := []domain.TaskState{
		domain.TaskPending, domain.TaskInProgress, domain.TaskRetrying,
		domain.TaskStored, domain.TaskFailed, domain.TaskAbandoned,
	}
	for _, state := range states {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", state, counts[state])
	}
	_ = w.Flush()

	unprocessed, err := postgres.NewURLRepo(db).ListUnprocessed(ctx, 10)
	if err != nil {
		slog.Error("Failed to list unprocessed urls", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("URLs:        %d\n", stats.URLs)
	fmt.Printf("Exhibitions: %d\n", stats.Exhibitions)
	fmt.Printf("Entry fees:  %d\n", stats.EntryFees)
	fmt.Printf("Prizes:      %d\n", stats.Prizes)
	if !stats.EarliestDate.IsZero() {
		fmt.Printf("Date range:  %s .. %s\n",
			stats.EarliestDate.Format("2006-01-02"), stats.LatestDate.Format("2006-01-02"))
	}

	if len(unprocessed) > 0 {
		fmt.Println("\nURLs with no exhibition yet:")
		for _, u := range unprocessed {
			fmt.Printf("  %s\n", u.URL)
		}
	}
}
