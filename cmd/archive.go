package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var errArchiveDisabled = errors.New("snapshot archive is disabled, set STORAGE_ENABLED=true")

// archiveCmd groups the snapshot archive commands.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived snapshots",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if a.archiver == nil {
			return errArchiveDisabled
		}

		archives, err := a.archiver.List(cmd.Context())
		if err != nil {
			return err
		}
		if ok, err := printStructured(cmd, archives); ok || err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE")
		for _, arc := range archives {
			fmt.Fprintf(w, "%s\t%d\n", arc.Name, arc.Size)
		}
		return w.Flush()
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print the records of an archived snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if a.archiver == nil {
			return errArchiveDisabled
		}

		records, err := a.archiver.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if ok, err := printStructured(cmd, records); ok || err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n", r.ID, r.Date, r.Time, r.Category, r.Content, r.Status)
		}
		return w.Flush()
	},
}

func init() {
	RootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd, archiveShowCmd)

	addOutputFlag(archiveListCmd)
	addOutputFlag(archiveShowCmd)
}
