package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"qbank/internal/bankapi"
	"qbank/internal/domain"
	"qbank/internal/service"
)

var uploadMode string

var uploadCmd = &cobra.Command{
	Use:   "upload <pdf> <book-name>",
	Short: "Upload a PDF for ingestion and wait for processing to finish",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(args[0], args[1])
	},
}

func init() {
	uploadCmd.Flags().StringVar(
		&uploadMode, "mode", bankapi.ModeComplete,
		fmt.Sprintf("processing mode: %s or %s", bankapi.ModeComplete, bankapi.ModeStepByStep),
	)
}

func runUpload(pdfPath, bookName string) error {
	if uploadMode != bankapi.ModeComplete && uploadMode != bankapi.ModeStepByStep {
		return fmt.Errorf("invalid mode %q", uploadMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	env, err := bootstrap(ctx)
	cancel()
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

	var cacheStore domain.Store
	if env.store != nil {
		cacheStore = env.store
	}
	librarySvc := service.NewLibraryService(env.client, cacheStore, env.logger)
	poller := service.NewStatusPoller(env.client, service.DefaultPollerConfig(), env.logger)
	uploadSvc := service.NewUploadService(env.client, poller, librarySvc, env.logger)

	done := make(chan error, 1)
	cb := service.PollerCallbacks{
		OnProgress: func(status domain.ProcessingStatus) {
			label := status.Message
			if label == "" {
				label = status.Status
			}
			if detail := status.StageDetail(); detail != "" {
				label += " " + detail
			}
			fmt.Printf("\r%-70s %3d%%", label, status.Progress)
		},
		OnCompleted: func(status domain.ProcessingStatus) {
			fmt.Printf("\r%-74s\n", "")
			fmt.Printf("✓ Processing complete: %s\n", status.BookName)
			done <- nil
		},
		OnFailed: func(status domain.ProcessingStatus) {
			fmt.Printf("\r%-74s\n", "")
			done <- fmt.Errorf("processing failed: %s", status.Message)
		},
	}

	uploadCtx, uploadCancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer uploadCancel()

	statusID, err := uploadSvc.Submit(uploadCtx, pdfPath, bookName, uploadMode, cb)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	fmt.Printf("Upload accepted, tracking job %s\n", statusID)

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Hour):
		poller.Stop()
		return fmt.Errorf("timed out waiting for processing")
	}
}
