package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kjk/ledger/backup"
	"github.com/kjk/ledger/config"
	"github.com/kjk/ledger/u"
	"github.com/spf13/cobra"
)

func newBackupTarget(ctx context.Context, cfg *config.BackupConfig) (backup.Target, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Target {
	case config.TargetDir:
		return &backup.DirTarget{Dir: cfg.Dir}, nil
	case config.TargetS3:
		t, err := backup.NewMinioTarget(ctx, &backup.MinioConfig{
			Access:   cfg.S3.Access,
			Secret:   cfg.S3.Secret,
			Bucket:   cfg.S3.Bucket,
			Endpoint: cfg.S3.Endpoint,
			Region:   cfg.S3.Region,
			Prefix:   cfg.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TargetSFTP:
		t, err := backup.NewSFTPTarget(&backup.SFTPConfig{
			User:           cfg.SFTP.User,
			Host:           cfg.SFTP.Host,
			PrivateKeyPath: cfg.SFTP.PrivateKeyPath,
			Dir:            cfg.SFTP.Dir,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TargetHTTP:
		return &backup.HTTPTarget{URL: cfg.HTTP.URL, APIKey: cfg.HTTP.APIKey}, nil
	}
	return nil, fmt.Errorf("unknown backup target '%s'", cfg.Target)
}

func newBackupCmd(a *app) *cobra.Command {
	var target, compression string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive data files and upload them to configured target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Backup
			if cmd.Flags().Changed("target") {
				cfg.Target = target
			}
			if cmd.Flags().Changed("compression") {
				cfg.Compression = compression
			}
			c, err := u.ParseCompression(cfg.Compression)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			t, err := newBackupTarget(ctx, &cfg)
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			dataPath, indexPath := s.Paths()
			name, err := backup.Run(ctx, s.Name(), []string{dataPath, indexPath}, t, c, a.now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s to %s\n", name, t)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&target, "target", "", "dir, s3, sftp or http (overrides config)")
	flags.StringVar(&compression, "compression", "", "none, zstd or brotli (overrides config)")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "restore <archive>",
		Short: "Replace data files of the account with files from a backup archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			dataPath := filepath.Join(a.cfg.DataDir, a.cfg.Account+".dat")
			if u.FileExists(dataPath) && !force {
				return fmt.Errorf("'%s' already exists, use --force to overwrite it", dataPath)
			}
			if err := backup.Restore(args[0], a.cfg.DataDir, a.cfg.Account); err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d records from %s\n", s.Len(), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing data files")
	return cmd
}
