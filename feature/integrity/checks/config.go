package checks

import "worklog/core/remote"

// ConfigReport lists the connection settings that are still empty.
type ConfigReport struct {
	Complete bool     `json:"complete"`
	Missing  []string `json:"missing"`
}

// CheckConfig inspects creds for empty identifiers.
func CheckConfig(creds remote.Credentials) ConfigReport {
	missing := creds.Missing()
	if missing == nil {
		missing = []string{}
	}
	return ConfigReport{Complete: len(missing) == 0, Missing: missing}
}
