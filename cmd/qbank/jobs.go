package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"qbank/internal/domain"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List processing jobs tracked by the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobs()
	},
}

func runJobs() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env, err := bootstrap(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			return fmt.Errorf("not logged in; run qbank login")
		}
		return err
	}
	defer func() {
		if env.store != nil {
			env.store.Close()
		}
	}()

	statuses, err := env.client.AllStatuses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(statuses) == 0 {
		fmt.Println("No tracked jobs.")
		return nil
	}

	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("%-38s %-10s %5s  %s\n", "JOB", "STATUS", "PROG", "BOOK")
	for _, id := range ids {
		s := statuses[id]
		fmt.Printf("%-38s %-10s %4d%%  %s\n", id, s.Status, s.Progress, s.BookName)
	}
	return nil
}
