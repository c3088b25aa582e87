package cmd

import (
	"context"
	"errors"

	"worklog/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform health checks",
	Long:  `Checks the connection settings, remote authentication, the local schema and the snapshot archive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return cmd.Help()
		}
		return runIntegrityChecks(cmd.Context(), true, true, true, true)
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "config",
	Short: "Check that every connection setting is set",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, false, false, false)
	},
}

var remoteCheckCmd = &cobra.Command{
	Use:   "remote",
	Short: "Check that the remote accepts the credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, true, false, false)
	},
}

var schemaCheckCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the local database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, false, true, false)
	},
}

var archiveCheckCmd = &cobra.Command{
	Use:   "archive",
	Short: "Check and fix the snapshot archive bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, false, false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(configCheckCmd, remoteCheckCmd, schemaCheckCmd, archiveCheckCmd)

	archiveCheckCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the bucket when missing")
}

func runIntegrityChecks(ctx context.Context, runConfig, runRemote, runSchema, runArchive bool) error {
	a, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	logg := a.logger
	svc := a.integrity
	failed := false

	if runConfig {
		logg.Info("Checking connection settings...")
		report := svc.CheckConfig()
		if report.Complete {
			logg.Info("Connection settings are complete.")
		} else {
			failed = true
			logg.Warn("Missing connection settings", zap.Strings("missing", report.Missing))
		}
	}

	if runRemote {
		logg.Info("Checking remote authentication...")
		report := svc.CheckRemote(ctx)
		switch {
		case report.Authenticated:
			logg.Info("Remote accepted the credentials.")
		case !report.Configured:
			logg.Warn("Remote check skipped, settings incomplete", zap.String("error", report.Error))
		default:
			failed = true
			logg.Error("Remote authentication failed", zap.String("error", report.Error))
		}
	}

	if runSchema {
		logg.Info("Checking local schema integrity...")
		report, err := svc.CheckSchema()
		if err != nil {
			return err
		}
		if report.Matched {
			logg.Info("Local schema matches the store models.", zap.String("dialect", report.Dialect))
		} else {
			failed = true
			logg.Warn("Local schema mismatches found", zap.String("dialect", report.Dialect))
			for table, tblReport := range report.Tables {
				if tblReport.Status != "ok" {
					if len(tblReport.MissingColumns) > 0 {
						logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tblReport.MissingColumns))
					}
					if len(tblReport.TypeMismatches) > 0 {
						logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tblReport.TypeMismatches))
					}
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}
	}

	if runArchive {
		logg.Info("Checking snapshot archive...")
		report, err := svc.CheckArchive(ctx)
		switch {
		case errors.Is(err, integrity.ErrArchiveDisabled):
			logg.Info("Snapshot archive is disabled.")
		case err != nil:
			return err
		case report.Exists:
			logg.Info("Archive bucket is present.", zap.String("bucket", report.Bucket), zap.Int("snapshots", report.Snapshots))
		case fixFlag:
			logg.Info("Creating archive bucket...", zap.String("bucket", report.Bucket))
			if err := svc.FixArchive(ctx); err != nil {
				return err
			}
			logg.Info("Archive bucket created.")
		default:
			failed = true
			logg.Warn("Archive bucket is missing", zap.String("bucket", report.Bucket))
			logg.Info("Run with --fix to create the bucket.")
		}
	}

	if failed {
		return errors.New("integrity checks failed")
	}
	return nil
}
