package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"worklog/core/clock"
	"worklog/core/models"
	"worklog/core/reconcile"
	"worklog/core/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const tablePrefix = "/bitable/v1/apps/app-token/tables/tbl-1"

var testCreds = remote.Credentials{
	AppID:     "cli_app",
	AppSecret: "secret",
	AppToken:  "app-token",
	TableID:   "tbl-1",
}

type fakeTable struct {
	tokenCalls atomic.Int32
	tokenValue atomic.Value
	handler    func(w http.ResponseWriter, r *http.Request)
}

func newFakeTable(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*fakeTable, *httptest.Server) {
	t.Helper()
	ft := &fakeTable{handler: handler}
	ft.tokenValue.Store("t-1")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v3/tenant_access_token/internal" {
			ft.tokenCalls.Add(1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "cli_app", body["app_id"])
			assert.Equal(t, "secret", body["app_secret"])
			writeJSON(w, map[string]any{"code": 0, "msg": "ok", "tenant_access_token": ft.tokenValue.Load(), "expire": 7200})
			return
		}
		ft.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return ft, srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, srv *httptest.Server, tokens *remote.TokenCache) *remote.Client {
	t.Helper()
	c, err := remote.NewClient(remote.Config{BaseURL: srv.URL, Timezone: "UTC"}, testCreds, tokens)
	require.NoError(t, err)
	return c
}

func TestNewClientIncompleteCredentials(t *testing.T) {
	_, err := remote.NewClient(remote.Config{}, remote.Credentials{AppID: "a"}, nil)
	assert.ErrorIs(t, err, remote.ErrIncompleteCredentials)
	assert.Contains(t, err.Error(), "app_secret")
}

func TestListRecordsPaginates(t *testing.T) {
	var pages atomic.Int32
	ft, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tablePrefix+"/records", r.URL.Path)
		assert.Equal(t, "Bearer t-1", r.Header.Get("Authorization"))
		assert.Equal(t, "500", r.URL.Query().Get("page_size"))
		pages.Add(1)

		if r.URL.Query().Get("page_token") == "" {
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{
				"has_more":   true,
				"page_token": "p2",
				"items": []any{
					map[string]any{"record_id": "rec1", "fields": map[string]any{"内容": "a", "日期": 1709596800000, "时间": []string{"09:00"}, "类型": "会议", "状态": "已同步"}},
				},
			}})
			return
		}
		assert.Equal(t, "p2", r.URL.Query().Get("page_token"))
		writeJSON(w, map[string]any{"code": 0, "data": map[string]any{
			"has_more": false,
			"items": []any{
				map[string]any{"record_id": "rec2", "fields": map[string]any{"内容": "b", "日期": "2024-03-06", "时间": "10:00", "类型": "开发", "状态": "未同步"}},
			},
		}})
	})

	records, err := newClient(t, srv, nil).ListRecords(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), pages.Load())
	assert.Equal(t, int32(1), ft.tokenCalls.Load())
	require.Len(t, records, 2)
	assert.Equal(t, "rec1", records[0].ID)
	assert.Equal(t, "2024/03/05", records[0].Date)
	assert.Equal(t, "09:00", records[0].Time)
	assert.Equal(t, models.StatusSynced, records[0].Status)
	assert.Equal(t, "2024/03/06", records[1].Date)
	assert.Equal(t, models.StatusUnsynced, records[1].Status)
}

func TestTokenIsReusedUntilExpiry(t *testing.T) {
	ft, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"items": []any{}}})
	})

	clk := clock.NewFakeClock(time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC))
	client := newClient(t, srv, remote.NewTokenCache(nil, clk))
	ctx := context.Background()

	_, err := client.ListRecords(ctx)
	require.NoError(t, err)
	_, err = client.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), ft.tokenCalls.Load())

	// 7200s advertised minus the 600s margin.
	clk.Advance(6600 * time.Second)
	_, err = client.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), ft.tokenCalls.Load())
}

func TestTokenRejectedIsInvalidated(t *testing.T) {
	var calls atomic.Int32
	ft, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, map[string]any{"code": 99991663, "msg": "token expired"})
			return
		}
		writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"items": []any{}}})
	})

	client := newClient(t, srv, nil)
	ctx := context.Background()

	_, err := client.ListRecords(ctx)
	var apiErr *remote.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 99991663, apiErr.Code)

	ft.tokenValue.Store("t-2")
	_, err = client.ListRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), ft.tokenCalls.Load())
}

func TestErrorClassification(t *testing.T) {
	t.Run("HTTPStatus", func(t *testing.T) {
		_, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		})
		_, err := newClient(t, srv, nil).ListRecords(context.Background())

		var httpErr *remote.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
		assert.Equal(t, "upstream down", httpErr.Body)
	})

	t.Run("ApplicationCode", func(t *testing.T) {
		_, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"code": 1254043, "msg": "RecordIdNotFound"})
		})
		err := newClient(t, srv, nil).UpdateRecord(context.Background(), models.LogRecord{ID: "rec9", Date: "2024/03/05"})

		var apiErr *remote.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 1254043, apiErr.Code)
		assert.Equal(t, "RecordIdNotFound", apiErr.Msg)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		_, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})
		_, err := newClient(t, srv, nil).ListRecords(context.Background())
		assert.Error(t, err)
	})
}

func TestCreateRecord(t *testing.T) {
	_, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, tablePrefix+"/records", r.URL.Path)

		var body struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "standup", body.Fields["内容"])
		assert.Equal(t, float64(1709596800000), body.Fields["日期"])
		assert.Equal(t, "09:30", body.Fields["时间"])
		assert.Equal(t, "已同步", body.Fields["状态"])

		writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"record": map[string]any{"record_id": "rec123"}}})
	})

	id, err := newClient(t, srv, nil).CreateRecord(context.Background(), models.LogRecord{
		ID:        "new-1700000000000",
		Content:   "standup",
		Date:      "2024/03/05",
		Time:      "09:30",
		Category:  "会议",
		Status:    models.StatusSynced,
		CreatedAt: "2024-03-05T01:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "rec123", id)
}

func TestUpdateRecordAddressesID(t *testing.T) {
	_, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, tablePrefix+"/records/rec7", r.URL.Path)
		writeJSON(w, map[string]any{"code": 0})
	})

	err := newClient(t, srv, nil).UpdateRecord(context.Background(), models.LogRecord{ID: "rec7", Date: "2024/03/05", Status: models.StatusSynced})
	assert.NoError(t, err)
}

func TestBatchUpdateStatus(t *testing.T) {
	var requests atomic.Int32
	_, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, tablePrefix+"/records/batch_update", r.URL.Path)

		raw, _ := io.ReadAll(r.Body)
		var body struct {
			Records []struct {
				RecordID string            `json:"record_id"`
				Fields   map[string]string `json:"fields"`
			} `json:"records"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		require.Len(t, body.Records, 2)
		assert.Equal(t, "rec1", body.Records[0].RecordID)
		assert.Equal(t, "本地删除", body.Records[0].Fields["状态"])
		assert.Equal(t, "rec2", body.Records[1].RecordID)

		writeJSON(w, map[string]any{"code": 0})
	})

	client := newClient(t, srv, nil)
	ctx := context.Background()

	require.NoError(t, client.BatchUpdateStatus(ctx, nil))
	assert.Equal(t, int32(0), requests.Load())

	err := client.BatchUpdateStatus(ctx, []models.StatusUpdate{
		{ID: "rec1", Status: models.StatusPendingDelete},
		{ID: "rec2", Status: models.StatusPendingDelete},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestDeleteRecord(t *testing.T) {
	_, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, tablePrefix+"/records/rec5", r.URL.Path)
		writeJSON(w, map[string]any{"code": 0})
	})

	assert.NoError(t, newClient(t, srv, nil).DeleteRecord(context.Background(), "rec5"))
}

func TestListCategories(t *testing.T) {
	t.Run("CategoryField", func(t *testing.T) {
		_, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, tablePrefix+"/fields", r.URL.Path)
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"items": []any{
				map[string]any{"field_name": "内容"},
				map[string]any{"field_name": "类型", "property": map[string]any{"options": []any{
					map[string]any{"name": "会议"},
					map[string]any{"name": "开发"},
				}}},
			}}})
		})

		options, err := newClient(t, srv, nil).ListCategories(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"会议", "开发"}, options)
	})

	t.Run("NoCategoryField", func(t *testing.T) {
		_, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{"items": []any{}}})
		})

		options, err := newClient(t, srv, nil).ListCategories(context.Background())
		require.NoError(t, err)
		assert.Empty(t, options)
	})
}

func datelessTable(t *testing.T, batches *atomic.Int32) *httptest.Server {
	t.Helper()
	_, srv := newFakeTable(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == tablePrefix+"/records":
			writeJSON(w, map[string]any{"code": 0, "data": map[string]any{
				"has_more": false,
				"items": []any{
					map[string]any{"record_id": "rec1", "fields": map[string]any{"内容": "x", "时间": "09:00", "类型": "其他", "状态": "未同步"}},
					map[string]any{"record_id": "rec2", "fields": map[string]any{"内容": "y", "日期": "2024-03-06", "时间": "10:00", "类型": "其他", "状态": "未同步"}},
					map[string]any{"record_id": "rec3", "fields": map[string]any{"内容": "z", "日期": "soon", "时间": "11:00", "类型": "其他", "状态": "已同步"}},
				},
			}})
		case r.Method == http.MethodPost && r.URL.Path == tablePrefix+"/records/batch_update":
			batches.Add(1)
			writeJSON(w, map[string]any{"code": 0})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	return srv
}

func TestListRecordsSkipsUndecodableRows(t *testing.T) {
	var batches atomic.Int32
	srv := datelessTable(t, &batches)

	core, logs := observer.New(zapcore.WarnLevel)
	client, err := remote.NewClient(remote.Config{BaseURL: srv.URL, Timezone: "UTC"}, testCreds, nil, remote.WithLogger(zap.New(core)))
	require.NoError(t, err)

	records, err := client.ListRecords(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"rec2"}, models.IDs(records))
	assert.Equal(t, 2, logs.FilterMessage("Skipping undecodable remote record").Len())
}

func TestReconcileWithUndecodableRowKeepsSyncing(t *testing.T) {
	var batches atomic.Int32
	srv := datelessTable(t, &batches)
	client := newClient(t, srv, nil)
	engine := reconcile.NewEngine(client, zap.NewNop())

	local := []models.LogRecord{{
		ID:        "rec9",
		Content:   "gone remotely",
		Date:      "2024/03/05",
		Time:      "08:00",
		Category:  "其他",
		Status:    models.StatusSynced,
		CreatedAt: "2024-03-05T00:00:00Z",
	}}

	for i := 0; i < 2; i++ {
		result, err := engine.Reconcile(context.Background(), local)
		require.NoError(t, err)
		require.False(t, result.Aborted)

		assert.Equal(t, []string{"rec2"}, models.IDs(result.Snapshot))
		assert.Equal(t, models.StatusSynced, result.Snapshot[0].Status)
		assert.Equal(t, 1, result.Summary.OrphansPurged)
		assert.Equal(t, 1, result.Summary.MarkedSynced)
	}
	assert.Equal(t, int32(2), batches.Load())
}
