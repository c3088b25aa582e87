package remote

import "worklog/core/models"

// Column names of the remote table.
const (
	FieldContent   = "内容"
	FieldDate      = "日期"
	FieldTime      = "时间"
	FieldCategory  = "类型"
	FieldStatus    = "状态"
	FieldCreatedAt = "创建时间"
)

var statusLabels = map[models.Status]string{
	models.StatusUnsynced:      "未同步",
	models.StatusSynced:        "已同步",
	models.StatusPendingDelete: "本地删除",
}

// StatusLabel returns the remote label for s.
func StatusLabel(s models.Status) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return statusLabels[models.StatusSynced]
}

// ParseStatusLabel maps a remote label back to a status. Missing or unknown
// labels read as Synced, which is how rows created directly in the table behave.
func ParseStatusLabel(label string) models.Status {
	for s, l := range statusLabels {
		if l == label {
			return s
		}
	}
	return models.StatusSynced
}
