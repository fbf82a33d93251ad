package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kurihiro0119/orthopairs/internal/verifier"
)

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)
	ctx := cmd.Context()

	previousDir, _ := cmd.Flags().GetString("previous")
	if previousDir == "" {
		if cfg.PreviousReleaseBucket == "" {
			return fmt.Errorf("either --previous or PREVIOUS_RELEASE_BUCKET is required")
		}
		previous, err := cfg.PreviousRelease()
		if err != nil {
			return err
		}

		client, err := verifier.NewS3Client(ctx, cfg.AWSRegion, cfg.S3Endpoint)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		tmp, err := os.MkdirTemp("", "orthopairs-previous-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)

		prefix := verifier.ExpandPrefix(cfg.PreviousReleasePrefix, previous)
		fmt.Printf("Downloading release %d from s3://%s/%s\n", previous, cfg.PreviousReleaseBucket, prefix)
		files, err := verifier.NewS3Fetcher(client, cfg.PreviousReleaseBucket, logger).Download(ctx, prefix, tmp)
		if err != nil {
			return fmt.Errorf("failed to download previous release: %w", err)
		}
		fmt.Printf("Downloaded %d files\n", len(files))
		previousDir = tmp
	}

	current, err := verifier.DirStats(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to read current release: %w", err)
	}
	prior, err := verifier.DirStats(previousDir)
	if err != nil {
		return fmt.Errorf("failed to read previous release: %w", err)
	}

	report := verifier.New(cfg.VerifyDropFraction, logger).Compare(current, prior)
	verifier.Render(os.Stdout, report)

	if report.HasErrors() {
		return fmt.Errorf("release %s failed verification with %d errors", cfg.ReleaseNumber, report.Count(verifier.SeverityError))
	}
	return nil
}
