package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// addOutputFlag registers -o on cmd.
func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
}

// printStructured writes v as json or yaml when requested. It reports false
// for text output so the caller prints its own table.
func printStructured(cmd *cobra.Command, v interface{}) (bool, error) {
	format, _ := cmd.Flags().GetString("output")
	return writeFormat(cmd.OutOrStdout(), format, v)
}

func writeFormat(w io.Writer, format string, v interface{}) (bool, error) {
	switch format {
	case "", "text":
		return false, nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, fmt.Errorf("unknown output format %q", format)
	}
}
