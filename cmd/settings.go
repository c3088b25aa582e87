package cmd

import (
	"fmt"

	coresettings "worklog/core/settings"

	"github.com/spf13/cobra"
)

// settingsCmd groups the connection settings commands.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the remote connection settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the settings with the secret redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		return printSettings(cmd, a.settingsS.Get())
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more settings",
	Long:  `Only the flags given are changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var patch coresettings.Patch
		flags := cmd.Flags()
		for flag, target := range map[string]**string{
			"app-id":     &patch.AppID,
			"app-secret": &patch.AppSecret,
			"app-token":  &patch.AppToken,
			"table-id":   &patch.TableID,
		} {
			if flags.Changed(flag) {
				v, _ := flags.GetString(flag)
				*target = &v
			}
		}
		if flags.Changed("interval") {
			v, _ := flags.GetInt("interval")
			patch.SyncIntervalHours = &v
		}

		updated, err := a.settingsS.Update(cmd.Context(), patch)
		if err != nil {
			return err
		}
		return printSettings(cmd, updated)
	},
}

// typesCmd lists the category options.
var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the category options of the remote table",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		refresh, _ := cmd.Flags().GetBool("refresh")
		types := a.settingsS.Types(cmd.Context(), refresh)
		if ok, err := printStructured(cmd, types); ok || err != nil {
			return err
		}
		for _, t := range types {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func printSettings(cmd *cobra.Command, s coresettings.Settings) error {
	if ok, err := printStructured(cmd, s); ok || err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "App ID:        %s\n", s.AppID)
	fmt.Fprintf(out, "App Secret:    %s\n", s.AppSecret)
	fmt.Fprintf(out, "App Token:     %s\n", s.AppToken)
	fmt.Fprintf(out, "Table ID:      %s\n", s.TableID)
	fmt.Fprintf(out, "Sync Interval: %dh\n", s.SyncIntervalHours)
	return nil
}

func init() {
	RootCmd.AddCommand(settingsCmd, typesCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)

	settingsSetCmd.Flags().String("app-id", "", "App ID")
	settingsSetCmd.Flags().String("app-secret", "", "App secret")
	settingsSetCmd.Flags().String("app-token", "", "Bitable app token")
	settingsSetCmd.Flags().String("table-id", "", "Table ID")
	settingsSetCmd.Flags().Int("interval", coresettings.DefaultIntervalHours, "Periodic sync interval in hours")

	addOutputFlag(settingsGetCmd)
	addOutputFlag(settingsSetCmd)
	addOutputFlag(typesCmd)
	typesCmd.Flags().Bool("refresh", false, "Bypass the cached list")
}
