package models

import "time"

// seedIDs is the fixed identifier list of the demonstration dataset, in order.
var seedIDs = []string{"mock-1", "mock-2", "mock-3", "mock-4", "mock-5", "mock-6", "mock-7", "mock-8"}

// SeedIDs returns a copy of the demonstration dataset identifiers.
func SeedIDs() []string {
	out := make([]string, len(seedIDs))
	copy(out, seedIDs)
	return out
}

// SeedRecords returns the demonstration dataset a fresh local store starts with.
// The last two entries are dated on the day of now.
func SeedRecords(now time.Time) []LogRecord {
	created := now.UTC().Format(time.RFC3339)
	today := FormatDate(now)
	entries := []struct {
		content, date, time, category string
	}{
		{"完成了机器人的炮膛开发和测试, 并对相关参数进行了调整和优化", "2025/06/13", "16:38", "开发部"},
		{"和销售部的负责人沟通了下半年的销售计划", "2025/06/13", "17:25", "销售部"},
		{"给设计部确认2025年618的营销设计任务", "2025/06/13", "17:39", "设计部"},
		{"和销售部的XM115同事沟通了营销计划", "2025/06/13", "17:53", "销售部"},
		{"准备演示用的每日工时记录和看板", "2025/06/17", "08:44", "其他"},
		{"向CEO演示每日工时记录日志和看板功能，获得赞赏", "2025/06/17", "09:15", "其他"},
		{"新员工入职培训", today, "14:00", "人力资源"},
		{"处理紧急服务器故障", today, "14:30", "开发部"},
	}

	records := make([]LogRecord, len(entries))
	for i, e := range entries {
		records[i] = LogRecord{
			ID:        seedIDs[i],
			Content:   e.content,
			Date:      e.date,
			Time:      e.time,
			Category:  e.category,
			Status:    StatusSynced,
			CreatedAt: created,
		}
	}
	return records
}

// IsSeed reports whether records carries exactly the demonstration identifier set.
func IsSeed(records []LogRecord) bool {
	if len(records) != len(seedIDs) {
		return false
	}
	want := make(map[string]struct{}, len(seedIDs))
	for _, id := range seedIDs {
		want[id] = struct{}{}
	}
	for _, r := range records {
		if _, ok := want[r.ID]; !ok {
			return false
		}
		delete(want, r.ID)
	}
	return len(want) == 0
}
