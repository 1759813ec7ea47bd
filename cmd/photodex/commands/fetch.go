package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/photodex/photodex/internal/config"
	"github.com/photodex/photodex/pkg/errors"
	"github.com/photodex/photodex/pkg/security"
	"github.com/photodex/photodex/pkg/storage"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <archive-key>",
	Short: "Download an archived library from S3 and extract it",
	Long: `Download a library archive (a gzipped tarball of the library bundle)
from the configured S3 bucket and extract it under the work directory.
Point --library at the extracted bundle afterwards.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	archiveKey := args[0]

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config load failed")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.S3Bucket == "" {
		return errors.Configurationf("s3-bucket must be set for fetch")
	}
	if err := ensureWorkDirs(cfg.WorkDir); err != nil {
		return err
	}

	client, err := storage.NewClient(ctx, cfg.S3Bucket, cfg.S3Region)
	if err != nil {
		return errors.Wrap(err, "S3 client failed")
	}

	exists, err := client.Exists(ctx, archiveKey)
	if err != nil {
		return errors.Wrap(err, "archive lookup failed")
	}
	if !exists {
		return errors.NotFoundf("archive %s not in bucket %s", archiveKey, cfg.S3Bucket)
	}

	downloadPath := filepath.Join(cfg.WorkDir, "downloads", filepath.Base(archiveKey))
	result, err := client.Download(ctx, archiveKey, downloadPath)
	if err != nil {
		return errors.Wrap(err, "download failed")
	}
	slog.Info("fetch_downloaded", "key", archiveKey, "sha256", result.SHA256, "size", result.Size)

	validator := security.NewValidator(cfg.MaxFileSize, cfg.MaxTotalSize, cfg.MaxCompressionRatio)
	root, err := storage.ExtractLibrary(downloadPath, filepath.Join(cfg.WorkDir, "libraries"), validator)
	if err != nil {
		return errors.Wrap(err, "extract failed")
	}

	fmt.Printf("Extracted library to %s\n", root)
	fmt.Printf("Run: photodex info --library %s\n", root)

	return nil
}
