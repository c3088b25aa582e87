package cmd

import (
	"fmt"
	"time"

	syncfeature "worklog/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd runs one manual pass.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the local store with the remote table",
	Long: `Runs one manual sync pass: local creates and edits are uploaded, remote
records are downloaded, tombstones are purged and orphans removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		startTime := time.Now()
		report, err := a.sync.Sync(cmd.Context(), "")
		if ok, perr := printStructured(cmd, report); ok || perr != nil {
			if perr != nil {
				return perr
			}
			return err
		}
		if err != nil {
			if report.Message != "" {
				fmt.Fprintln(cmd.OutOrStdout(), report.Message)
			}
			return err
		}

		printReport(cmd, report)
		a.logger.Info("Sync completed", zap.Duration("execution_time", time.Since(startTime)))
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last sync outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.sync.Status(cmd.Context())
		if err != nil {
			return err
		}
		if ok, err := printStructured(cmd, status); ok || err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configured:   %v\n", status.Configured)
		if status.LastSyncAt != nil {
			fmt.Fprintf(out, "Last sync:    %s\n", status.LastSyncAt.Local().Format(time.DateTime))
		} else {
			fmt.Fprintln(out, "Last sync:    never")
		}
		fmt.Fprintf(out, "Last outcome: %s\n", status.LastOutcome)
		fmt.Fprintf(out, "Message:      %s\n", status.LastMessage)
		return nil
	},
}

// remoteCmd groups administrative remote operations.
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Administrative operations on the remote table",
}

var remoteDeleteCmd = &cobra.Command{
	Use:   "delete <record-id>",
	Short: "Delete a record from the remote table",
	Long:  `The local copy is removed as an orphan on the next sync.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.sync.DeleteRemote(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted remote record %s\n", args[0])
		return nil
	},
}

func printReport(cmd *cobra.Command, report syncfeature.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== Sync Report ===")
	fmt.Fprintln(out, report.Message)
	if report.Summary == nil {
		return
	}
	s := report.Summary
	fmt.Fprintf(out, "Created:           %d\n", s.Created)
	fmt.Fprintf(out, "Updated:           %d\n", s.Updated)
	fmt.Fprintf(out, "Downloaded:        %d\n", s.Downloaded)
	fmt.Fprintf(out, "Overwritten:       %d\n", s.Overwritten)
	fmt.Fprintf(out, "Marked synced:     %d\n", s.MarkedSynced)
	fmt.Fprintf(out, "Tombstones purged: %d\n", s.TombstonesPurged)
	fmt.Fprintf(out, "Orphans purged:    %d\n", s.OrphansPurged)
	fmt.Fprintf(out, "Remote calls:      %d\n", s.RemoteCalls)
	if s.TombstoneBatchFailed {
		fmt.Fprintln(out, "Warning: the tombstone status batch failed; deleted records may reappear remotely as unsynced")
	}
}

func init() {
	RootCmd.AddCommand(syncCmd, remoteCmd)
	syncCmd.AddCommand(syncStatusCmd)
	remoteCmd.AddCommand(remoteDeleteCmd)

	addOutputFlag(syncCmd)
	addOutputFlag(syncStatusCmd)
}
