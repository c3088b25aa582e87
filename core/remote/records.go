package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"worklog/core/models"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

func (c *Client) tablePath(suffix string) string {
	return "/bitable/v1/apps/" + url.PathEscape(c.creds.AppToken) +
		"/tables/" + url.PathEscape(c.creds.TableID) + suffix
}

// ListRecords returns every record of the table in remote order, following pagination.
// Rows that do not decode into a complete record are logged and left out.
func (c *Client) ListRecords(ctx context.Context) ([]models.LogRecord, error) {
	var (
		records   []models.LogRecord
		pageToken string
	)

	for {
		query := url.Values{}
		query.Set("page_size", strconv.Itoa(c.pageSize))
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var hasMore bool
		err := c.call(ctx, "list records", http.MethodGet, c.tablePath("/records?"+query.Encode()), nil, true, func(v *fastjson.Value) error {
			data := v.Get("data")
			if data == nil {
				return nil
			}
			for _, item := range data.GetArray("items") {
				r, err := decodeRecord(item, c.loc)
				if err != nil {
					c.logger.Warn("Skipping undecodable remote record", zap.Error(err))
					continue
				}
				records = append(records, r)
			}
			hasMore = data.GetBool("has_more")
			pageToken = string(data.GetStringBytes("page_token"))
			return nil
		})
		if err != nil {
			return nil, err
		}
		if !hasMore || pageToken == "" {
			break
		}
	}

	return records, nil
}

// CreateRecord inserts r and returns the identifier assigned by the remote table.
func (c *Client) CreateRecord(ctx context.Context, r models.LogRecord) (string, error) {
	payload, err := c.fieldsBody(r)
	if err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}

	var id string
	err = c.call(ctx, "create record", http.MethodPost, c.tablePath("/records"), payload, true, func(v *fastjson.Value) error {
		id = string(v.GetStringBytes("data", "record", "record_id"))
		if id == "" {
			return fmt.Errorf("response carries no record_id")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateRecord overwrites every tracked field of the record addressed by r.ID.
func (c *Client) UpdateRecord(ctx context.Context, r models.LogRecord) error {
	payload, err := c.fieldsBody(r)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return c.call(ctx, "update record", http.MethodPut, c.tablePath("/records/"+url.PathEscape(r.ID)), payload, true, nil)
}

// BatchUpdateStatus sets the status of several records in one call.
// An empty batch issues no request.
func (c *Client) BatchUpdateStatus(ctx context.Context, updates []models.StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	a := c.arenas.Get()
	items := a.NewArray()
	for i, u := range updates {
		fields := a.NewObject()
		fields.Set(FieldStatus, a.NewString(StatusLabel(u.Status)))
		item := a.NewObject()
		item.Set("record_id", a.NewString(u.ID))
		item.Set("fields", fields)
		items.SetArrayItem(i, item)
	}
	body := a.NewObject()
	body.Set("records", items)
	payload := body.MarshalTo(nil)
	c.arenas.Put(a)

	return c.call(ctx, "batch update status", http.MethodPost, c.tablePath("/records/batch_update"), payload, true, nil)
}

// DeleteRecord removes a record. Administrative use only; passes never delete.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	return c.call(ctx, "delete record", http.MethodDelete, c.tablePath("/records/"+url.PathEscape(id)), nil, true, nil)
}

// ListCategories returns the options of the category column in schema order.
// A table without that column yields an empty slice.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var options []string
	err := c.call(ctx, "list fields", http.MethodGet, c.tablePath("/fields?page_size=100"), nil, true, func(v *fastjson.Value) error {
		for _, field := range v.GetArray("data", "items") {
			if string(field.GetStringBytes("field_name")) != FieldCategory {
				continue
			}
			for _, opt := range field.GetArray("property", "options") {
				if name := string(opt.GetStringBytes("name")); name != "" {
					options = append(options, name)
				}
			}
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return options, nil
}

func (c *Client) fieldsBody(r models.LogRecord) ([]byte, error) {
	a := c.arenas.Get()
	defer c.arenas.Put(a)

	fields, err := encodeFields(a, r, c.loc)
	if err != nil {
		return nil, err
	}
	body := a.NewObject()
	body.Set("fields", fields)
	return body.MarshalTo(nil), nil
}
