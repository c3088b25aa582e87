package remote

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"worklog/core/models"

	"github.com/valyala/fastjson"
)

// decodeRecord converts one item of a records response into a typed LogRecord.
// item is {"record_id": "...", "fields": {...}}.
func decodeRecord(item *fastjson.Value, loc *time.Location) (models.LogRecord, error) {
	id := string(item.GetStringBytes("record_id"))
	if id == "" {
		return models.LogRecord{}, fmt.Errorf("record without record_id")
	}

	fields := item.Get("fields")
	if fields == nil {
		fields = &fastjson.Value{}
	}

	date, err := decodeDate(fields.Get(FieldDate), loc)
	if err != nil {
		return models.LogRecord{}, fmt.Errorf("record %s: %w", id, err)
	}

	return models.LogRecord{
		ID:        id,
		Content:   decodeText(fields.Get(FieldContent)),
		Date:      date,
		Time:      decodeTime(fields.Get(FieldTime)),
		Category:  decodeText(fields.Get(FieldCategory)),
		Status:    ParseStatusLabel(decodeText(fields.Get(FieldStatus))),
		CreatedAt: decodeTimestamp(fields.Get(FieldCreatedAt)),
	}, nil
}

// decodeText reads a plain string or a rich-text segment list ([{"text": "..."}]).
func decodeText(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeArray:
		var b strings.Builder
		for _, seg := range v.GetArray() {
			switch seg.Type() {
			case fastjson.TypeString:
				b.Write(seg.GetStringBytes())
			case fastjson.TypeObject:
				b.Write(seg.GetStringBytes("text"))
			}
		}
		return b.String()
	case fastjson.TypeObject:
		return string(v.GetStringBytes("text"))
	default:
		return ""
	}
}

// decodeDate accepts epoch milliseconds or a dash/slash-delimited date string.
// A missing or malformed date is an error.
func decodeDate(v *fastjson.Value, loc *time.Location) (string, error) {
	if v == nil {
		return "", fmt.Errorf("missing date")
	}
	switch v.Type() {
	case fastjson.TypeNumber:
		ms, err := numberMillis(v)
		if err != nil {
			return "", fmt.Errorf("date: %w", err)
		}
		return models.DateFromMillis(ms, loc), nil
	case fastjson.TypeString:
		raw := string(v.GetStringBytes())
		if raw == "" {
			return "", fmt.Errorf("missing date")
		}
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return models.DateFromMillis(ms, loc), nil
		}
		date, err := models.NormalizeDate(raw)
		if err != nil {
			return "", fmt.Errorf("date: %w", err)
		}
		return date, nil
	default:
		return "", fmt.Errorf("date: unexpected %s value", v.Type())
	}
}

// decodeTime accepts "HH:mm", ["HH:mm"] or [{"text": "HH:mm"}].
func decodeTime(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	if v.Type() == fastjson.TypeArray {
		items := v.GetArray()
		if len(items) == 0 {
			return ""
		}
		return decodeText(items[0])
	}
	return decodeText(v)
}

// decodeTimestamp reads an ISO-8601 string or an epoch-millisecond number.
func decodeTimestamp(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	if v.Type() == fastjson.TypeNumber {
		ms, err := numberMillis(v)
		if err != nil {
			return ""
		}
		return time.UnixMilli(ms).UTC().Format(time.RFC3339)
	}
	return decodeText(v)
}

func numberMillis(v *fastjson.Value) (int64, error) {
	if ms, err := v.Int64(); err == nil {
		return ms, nil
	}
	f, err := v.Float64()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %v", f)
	}
	return int64(f), nil
}

// encodeFields builds the "fields" object for create and update calls.
// Dates are sent as epoch milliseconds, times as bare strings.
func encodeFields(a *fastjson.Arena, r models.LogRecord, loc *time.Location) (*fastjson.Value, error) {
	ms, err := models.DateMillis(r.Date, loc)
	if err != nil {
		return nil, err
	}

	fields := a.NewObject()
	fields.Set(FieldContent, a.NewString(r.Content))
	fields.Set(FieldDate, a.NewNumberString(strconv.FormatInt(ms, 10)))
	fields.Set(FieldTime, a.NewString(r.Time))
	fields.Set(FieldCategory, a.NewString(r.Category))
	fields.Set(FieldStatus, a.NewString(StatusLabel(r.Status)))
	fields.Set(FieldCreatedAt, a.NewString(r.CreatedAt))
	return fields, nil
}
