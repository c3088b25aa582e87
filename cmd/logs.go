package cmd

import (
	"fmt"
	"text/tabwriter"

	"worklog/core/models"
	"worklog/feature/logs"

	"github.com/spf13/cobra"
)

// logsCmd groups the local record commands.
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Edit and list local work log records",
	Long:  `Local edits are marked unsynced and reach the remote table on the next sync.`,
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the week containing a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		date, _ := cmd.Flags().GetString("date")
		query, _ := cmd.Flags().GetString("query")
		category, _ := cmd.Flags().GetString("category")

		week, err := a.logs.Week(cmd.Context(), date, logs.Filter{Query: query, Category: category})
		if err != nil {
			return err
		}
		if ok, err := printStructured(cmd, week); ok || err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Week %s - %s\n", week.Start, week.End)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, day := range week.Days {
			fmt.Fprintf(w, "\n%s\t%s\n", day.Date, day.Weekday)
			for _, r := range day.Records {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", r.Time, r.Category, r.Content, r.Status, r.ID)
			}
		}
		return w.Flush()
	},
}

var logsAddCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Create a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		in := logs.Input{Content: args[0]}
		in.Date, _ = cmd.Flags().GetString("date")
		in.Time, _ = cmd.Flags().GetString("time")
		in.Category, _ = cmd.Flags().GetString("category")
		if in.Date == "" {
			in.Date = a.logs.Today()
		}

		rec, err := a.logs.Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printRecord(cmd, rec)
	},
}

var logsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change the fields of a record",
	Long:  `Only the flags given are changed. The record becomes unsynced.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		existing, err := a.logs.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		in := logs.Input{
			Content:  existing.Content,
			Date:     existing.Date,
			Time:     existing.Time,
			Category: existing.Category,
		}
		flags := cmd.Flags()
		if flags.Changed("content") {
			in.Content, _ = flags.GetString("content")
		}
		if flags.Changed("date") {
			in.Date, _ = flags.GetString("date")
		}
		if flags.Changed("time") {
			in.Time, _ = flags.GetString("time")
		}
		if flags.Changed("category") {
			in.Category, _ = flags.GetString("category")
		}

		rec, err := a.logs.Update(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		return printRecord(cmd, rec)
	},
}

var logsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a record",
	Long:  `The record is hidden at once and removed from the remote table on the next sync.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.logs.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func printRecord(cmd *cobra.Command, rec models.LogRecord) error {
	if ok, err := printStructured(cmd, rec); ok || err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s  [%s]  %s  (%s)\n", rec.ID, rec.Date, rec.Time, rec.Category, rec.Content, rec.Status)
	return nil
}

func init() {
	RootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsListCmd, logsAddCmd, logsEditCmd, logsRmCmd)

	logsListCmd.Flags().String("date", "", "Any date in the week (YYYY/MM/DD); defaults to today")
	logsListCmd.Flags().StringP("query", "q", "", "Case-insensitive content search")
	logsListCmd.Flags().String("category", logs.CategoryAll, "Category filter")
	addOutputFlag(logsListCmd)

	logsAddCmd.Flags().String("date", "", "Date (YYYY/MM/DD); defaults to today")
	logsAddCmd.Flags().String("time", "", "Time of day (HH:mm)")
	logsAddCmd.Flags().String("category", "", "Category; defaults to "+models.DefaultCategory)
	_ = logsAddCmd.MarkFlagRequired("time")
	addOutputFlag(logsAddCmd)

	logsEditCmd.Flags().String("content", "", "New content")
	logsEditCmd.Flags().String("date", "", "New date (YYYY/MM/DD)")
	logsEditCmd.Flags().String("time", "", "New time of day (HH:mm)")
	logsEditCmd.Flags().String("category", "", "New category")
	addOutputFlag(logsEditCmd)
}
