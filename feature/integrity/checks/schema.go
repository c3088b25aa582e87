package checks

import (
	"fmt"
	"strings"
	"sync"

	"worklog/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// SchemaReport strictly types the result of a local schema check.
type SchemaReport struct {
	Dialect string                 `json:"dialect"`
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "missing", "error"
}

// CheckSchema verifies the database schema using the GORM models as the
// source of truth.
func CheckSchema(db *gorm.DB, models ...interface{}) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Dialect: db.Dialector.Name(),
		Tables:  make(map[string]TableReport),
		Matched: true,
		Errors:  []string{},
	}

	cache := &sync.Map{}
	for _, model := range models {
		sch, err := schema.Parse(model, cache, db.NamingStrategy)
		if err != nil {
			return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
		}

		actualCols, err := database.GetTableColumns(db, sch.Table)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", sch.Table, err))
			report.Matched = false
			continue
		}

		tblReport := compareColumns(sch, actualCols)
		if tblReport.Status != "ok" {
			report.Matched = false
		}
		report.Tables[sch.Table] = tblReport
	}

	return report, nil
}

func compareColumns(sch *schema.Schema, actualCols []database.ColumnInfo) TableReport {
	tblReport := TableReport{
		MissingColumns: []string{},
		TypeMismatches: []string{},
		Status:         "ok",
	}

	// sqlite reports no columns at all for a table that was never created
	if len(actualCols) == 0 {
		for _, field := range sch.Fields {
			if field.DBName != "" {
				tblReport.MissingColumns = append(tblReport.MissingColumns, field.DBName)
			}
		}
		tblReport.Status = "missing"
		return tblReport
	}

	actualMap := make(map[string]database.ColumnInfo, len(actualCols))
	for _, col := range actualCols {
		actualMap[col.Field] = col
	}

	for _, field := range sch.Fields {
		if field.DBName == "" {
			continue
		}

		actCol, exists := actualMap[field.DBName]
		if !exists {
			tblReport.MissingColumns = append(tblReport.MissingColumns, field.DBName)
			tblReport.Status = "error"
			continue
		}

		// Only explicit type: tags are compared; sizes map differently per dialect.
		expType := strings.ToLower(parseGormType(field.Tag.Get("gorm")))
		if expType != "" && !strings.Contains(actCol.Type, expType) {
			mismatch := fmt.Sprintf("%s: expected %s, got %s", field.DBName, expType, actCol.Type)
			tblReport.TypeMismatches = append(tblReport.TypeMismatches, mismatch)
			tblReport.Status = "error"
		}
	}

	return tblReport
}

func parseGormType(tag string) string {
	parts := strings.Split(tag, ";")
	for _, p := range parts {
		if strings.HasPrefix(p, "type:") {
			return strings.TrimPrefix(p, "type:")
		}
	}
	return ""
}
