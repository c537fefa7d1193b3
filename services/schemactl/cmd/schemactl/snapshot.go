package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	gos3 "prompterly/pkg/s3"
	"prompterly/pkg/snapshot"
)

func newSnapshotCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Create and restore signed store snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newSnapshotCreateCommand(a))
	cmd.AddCommand(newSnapshotRestoreCommand(a))
	return cmd
}

func newSnapshotCreateCommand(a *app) *cobra.Command {
	var (
		output  string
		encrypt bool
		upload  bool
		linkTTL time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Export every table into a signed tar.zst archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			if err := a.open(ctx); err != nil {
				return err
			}
			signer, err := snapshot.NewSigner(a.cfg.Snapshot.AgeSecretKey, a.cfg.Snapshot.AgePublicKey)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("prompterly-%s.tar.zst", time.Now().UTC().Format("20060102T150405Z"))
			}

			cfg := snapshot.CreateConfig{
				DB:        a.handle.ORM,
				Registry:  a.reg,
				Versioner: a.runner,
				Output:    output,
				Signer:    signer,
				Stdout:    cmd.OutOrStdout(),
			}
			if encrypt {
				cfg.Recipient = a.cfg.Snapshot.AgeRecipient
				if cfg.Recipient == "" {
					cfg.Recipient = signer.Recipient()
				}
				if cfg.Recipient == "" {
					return errors.New("--encrypt needs AGE_RECIPIENT or AGE_SECRET_KEY")
				}
				if !strings.HasSuffix(cfg.Output, ".age") {
					cfg.Output += ".age"
				}
			}
			if upload {
				client, err := gos3.NewClient(ctx, a.cfg.S3)
				if err != nil {
					return fmt.Errorf("s3 client: %w", err)
				}
				if a.cfg.Snapshot.Bucket == "" {
					return errors.New("--upload needs SNAPSHOT_BUCKET")
				}
				cfg.Upload = &snapshot.Upload{Client: client, Bucket: a.cfg.Snapshot.Bucket, Prefix: "snapshots", LinkTTL: linkTTL}
			}

			_, err = snapshot.Create(ctx, cfg)
			return err
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Destination archive (default prompterly-<timestamp>.tar.zst)")
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "Encrypt the archive to AGE_RECIPIENT")
	cmd.Flags().BoolVar(&upload, "upload", false, "Copy the archive to SNAPSHOT_BUCKET")
	cmd.Flags().DurationVar(&linkTTL, "link-ttl", 0, "Print a presigned download link valid this long (with --upload)")
	return cmd
}

func newSnapshotRestoreCommand(a *app) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Verify a snapshot and load it into a store at the same schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := contextOf(cmd)
			if err := a.open(ctx); err != nil {
				return err
			}
			signer, err := snapshot.NewSigner(a.cfg.Snapshot.AgeSecretKey, a.cfg.Snapshot.AgePublicKey)
			if err != nil {
				return err
			}
			cfg := snapshot.RestoreConfig{
				DB:        a.handle.ORM,
				Registry:  a.reg,
				Versioner: a.runner,
				Source:    source,
				Signer:    signer,
				Stdout:    cmd.OutOrStdout(),
			}
			if strings.HasPrefix(source, "s3://") {
				cfg.S3, err = gos3.NewClient(ctx, a.cfg.S3)
				if err != nil {
					return fmt.Errorf("s3 client: %w", err)
				}
			}
			_, _, err = snapshot.Restore(ctx, cfg)
			if err == nil {
				a.pushMetrics(ctx)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&source, "file", "", "Archive path or s3://bucket/key")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
