package reconcile_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"worklog/core/models"
	"worklog/core/reconcile"
	"worklog/core/remote/mocks"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mixedScenario exercises every phase in one pass.
func mixedScenario() (*fakeTable, []models.LogRecord) {
	table := newFakeTable(
		rec("rec1", "alpha", models.StatusSynced),
		rec("rec2", "beta", models.StatusSynced),
		rec("rec3", "gamma remote", models.StatusSynced),
		rec("rec4", "delta", models.StatusSynced),
		rec("rec6", "zeta", models.StatusUnsynced),
		rec("rec7", "eta", models.StatusPendingDelete),
	)
	local := []models.LogRecord{
		rec("rec1", "alpha", models.StatusSynced),
		rec("rec2", "beta edited", models.StatusUnsynced),
		rec("rec3", "gamma local", models.StatusSynced),
		rec("rec4", "delta", models.StatusPendingDelete),
		rec("new-1700000000000", "new work", models.StatusUnsynced),
		rec("rec5", "epsilon", models.StatusSynced),
		rec("new-1700000000001", "draft", models.StatusPendingDelete),
	}
	return table, local
}

func renderPass(result *reconcile.Result) []byte {
	var b strings.Builder
	for _, m := range result.Mutations {
		parts := []string{string(m.Phase), string(m.Kind)}
		if m.RecordID != "" {
			parts = append(parts, m.RecordID)
		}
		if m.Detail != "" {
			parts = append(parts, "detail="+m.Detail)
		}
		if m.Error != "" {
			parts = append(parts, "error="+m.Error)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteByte('\n')
	}
	b.WriteString("--\n")
	for _, r := range result.Snapshot {
		b.WriteString(r.ID + " " + string(r.Status) + " " + r.Content + "\n")
	}
	return []byte(b.String())
}

func TestReconcile_MixedPassGolden(t *testing.T) {
	table, local := mixedScenario()
	engine := reconcile.NewEngine(table, zap.NewNop())

	result, err := engine.Reconcile(context.Background(), local)
	require.NoError(t, err)
	assert.False(t, result.Aborted)
	assert.False(t, result.FirstSync)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "mixed_pass", renderPass(result))

	assert.Equal(t, []string{"batch:1", "update:rec2", "create:new-1700000000000", "batch:1"}, table.mutatingCalls())
	assert.Equal(t, reconcile.Summary{
		Created:          1,
		Updated:          1,
		Downloaded:       1,
		Overwritten:      1,
		MarkedSynced:     1,
		TombstonesPurged: 2,
		OrphansPurged:    1,
		RemoteCalls:      6,
	}, result.Summary)
	assert.Equal(t, "sync complete: 1 created, 1 updated, 1 downloaded, 1 overwritten, 2 deleted, 1 removed remotely", result.Message)
}

func TestReconcile_Idempotent(t *testing.T) {
	table, local := mixedScenario()
	engine := reconcile.NewEngine(table, zap.NewNop())
	ctx := context.Background()

	first, err := engine.Reconcile(ctx, local)
	require.NoError(t, err)

	table.resetCalls()
	second, err := engine.Reconcile(ctx, first.Snapshot)
	require.NoError(t, err)

	assert.Equal(t, first.Snapshot, second.Snapshot)
	assert.Empty(t, table.mutatingCalls())
	assert.Empty(t, second.Mutations)
	assert.Equal(t, "sync complete: already up to date", second.Message)
}

func TestReconcile_RemoteWinsConvergence(t *testing.T) {
	remoteRec := models.LogRecord{
		ID:        "rec1",
		Content:   "remote content",
		Date:      "2025/06/18",
		Time:      "10:30",
		Category:  "销售部",
		Status:    models.StatusSynced,
		CreatedAt: "2025-06-18T02:00:00Z",
	}
	localRec := rec("rec1", "local content", models.StatusSynced)
	table := newFakeTable(remoteRec)

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), []models.LogRecord{localRec})
	require.NoError(t, err)

	require.Len(t, result.Snapshot, 1)
	assert.Equal(t, remoteRec, result.Snapshot[0])
	assert.Equal(t, 1, result.Summary.Overwritten)
	assert.Empty(t, table.mutatingCalls())
}

func TestReconcile_RemoteWinsStatusIsSynced(t *testing.T) {
	remoteRec := rec("rec1", "remote", models.StatusUnsynced)
	table := newFakeTable(remoteRec)

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), []models.LogRecord{rec("rec1", "local", models.StatusSynced)})
	require.NoError(t, err)

	require.Len(t, result.Snapshot, 1)
	assert.Equal(t, "remote", result.Snapshot[0].Content)
	assert.Equal(t, models.StatusSynced, result.Snapshot[0].Status)
}

func TestReconcile_MarkSyncedSendsStatusOnly(t *testing.T) {
	dateless := rec("rec2", "no date", models.StatusUnsynced)
	dateless.Date = ""

	t.Run("Batcher", func(t *testing.T) {
		table := newFakeTable(rec("rec1", "a", models.StatusSynced), dateless)
		table.failUpdate = errors.New("update must not be sent")

		result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), []models.LogRecord{rec("rec1", "a", models.StatusSynced)})
		require.NoError(t, err)
		assert.False(t, result.Aborted)
		assert.Equal(t, []string{"rec1", "rec2"}, models.IDs(result.Snapshot))
		assert.Equal(t, []string{"batch:1"}, table.mutatingCalls())
		assert.Equal(t, models.StatusSynced, table.records[1].Status)
		assert.Equal(t, "", table.records[1].Date)
	})

	t.Run("WithoutBatcher", func(t *testing.T) {
		table := newFakeTable(rec("rec1", "a", models.StatusSynced), dateless)

		result, err := reconcile.NewEngine(singleOnly{t: table}, nil).Reconcile(context.Background(), []models.LogRecord{rec("rec1", "a", models.StatusSynced)})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Summary.MarkedSynced)
		assert.Equal(t, []string{"update:rec2"}, table.mutatingCalls())
	})
}

func TestReconcile_SeedShortCircuit(t *testing.T) {
	remoteRecords := []models.LogRecord{
		rec("rec1", "alpha", models.StatusSynced),
		rec("rec2", "beta", models.StatusUnsynced),
		rec("rec3", "gone", models.StatusPendingDelete),
	}

	client := new(mocks.Remote)
	client.On("ListRecords", mock.Anything).Return(remoteRecords, nil).Once()

	seed := models.SeedRecords(time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	seed[0].Status = models.StatusUnsynced

	result, err := reconcile.NewEngine(client, zap.NewNop()).Reconcile(context.Background(), seed)
	require.NoError(t, err)

	assert.True(t, result.FirstSync)
	assert.Equal(t, []models.LogRecord{
		rec("rec1", "alpha", models.StatusSynced),
		rec("rec2", "beta", models.StatusSynced),
	}, result.Snapshot)

	client.AssertExpectations(t)
	client.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "UpdateRecord", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "BatchUpdateStatus", mock.Anything, mock.Anything)
}

func TestReconcile_EmptyLocalAdoptsRemote(t *testing.T) {
	table := newFakeTable(rec("rec1", "alpha", models.StatusSynced))

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, result.FirstSync)
	assert.Equal(t, []string{"rec1"}, models.IDs(result.Snapshot))
	assert.Empty(t, table.mutatingCalls())
}

func TestReconcile_IDRemapUniqueness(t *testing.T) {
	client := new(mocks.Remote)
	created := rec("rec123", "new work", models.StatusSynced)
	client.On("ListRecords", mock.Anything).Return([]models.LogRecord{rec("rec9", "other", models.StatusSynced)}, nil).Once()
	client.On("CreateRecord", mock.Anything, mock.MatchedBy(func(r models.LogRecord) bool {
		return r.ID == "new-1700000000000" && r.Status == models.StatusSynced
	})).Return("rec123", nil).Once()
	client.On("ListRecords", mock.Anything).Return([]models.LogRecord{rec("rec9", "other", models.StatusSynced), created}, nil).Once()

	local := []models.LogRecord{
		rec("rec9", "other", models.StatusSynced),
		rec("new-1700000000000", "new work", models.StatusUnsynced),
	}

	result, err := reconcile.NewEngine(client, nil).Reconcile(context.Background(), local)
	require.NoError(t, err)

	ids := models.IDs(result.Snapshot)
	assert.Equal(t, []string{"rec9", "rec123"}, ids)
	assert.NotContains(t, ids, "new-1700000000000")
	client.AssertExpectations(t)
}

func TestReconcile_RemapToIndexedIDIsProtocolError(t *testing.T) {
	table := newFakeTable(rec("rec-100", "existing", models.StatusSynced))
	local := []models.LogRecord{
		rec("rec-100", "existing", models.StatusSynced),
		rec("new-1", "fresh", models.StatusUnsynced),
	}
	// The fake hands out rec-100 first, which is already indexed.
	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), local)

	var perr *reconcile.PassError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, reconcile.KindTransport, perr.Kind)
	assert.Equal(t, reconcile.PhaseUpload, perr.Phase)
	assert.ErrorIs(t, err, reconcile.ErrDuplicateID)
	assert.True(t, result.Aborted)
}

func TestReconcile_TombstoneRemoval(t *testing.T) {
	for _, tc := range []struct {
		name      string
		failBatch error
	}{
		{"BatchSucceeds", nil},
		{"BatchFails", errors.New("http 500")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			table := newFakeTable(rec("rec1", "keep", models.StatusSynced), rec("rec2", "drop", models.StatusSynced))
			table.failBatch = tc.failBatch
			local := []models.LogRecord{
				rec("rec1", "keep", models.StatusSynced),
				rec("rec2", "drop", models.StatusPendingDelete),
			}

			result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), local)
			require.NoError(t, err)

			assert.Equal(t, []string{"rec1"}, models.IDs(result.Snapshot))
			assert.Equal(t, 1, result.Summary.TombstonesPurged)
			assert.Equal(t, tc.failBatch != nil, result.Summary.TombstoneBatchFailed)
			assert.Equal(t, []string{"batch:1"}, table.mutatingCalls())
		})
	}
}

func TestReconcile_TemporaryTombstoneNeedsNoCall(t *testing.T) {
	table := newFakeTable(rec("rec1", "keep", models.StatusSynced))
	local := []models.LogRecord{
		rec("rec1", "keep", models.StatusSynced),
		rec("new-1700000000000", "never uploaded", models.StatusPendingDelete),
	}

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), local)
	require.NoError(t, err)

	assert.Equal(t, []string{"rec1"}, models.IDs(result.Snapshot))
	assert.Empty(t, table.mutatingCalls())
}

func TestReconcile_TombstonesWithoutBatcher(t *testing.T) {
	table := newFakeTable(rec("rec1", "a", models.StatusSynced), rec("rec2", "b", models.StatusSynced))
	local := []models.LogRecord{
		rec("rec1", "a", models.StatusPendingDelete),
		rec("rec2", "b", models.StatusPendingDelete),
	}

	result, err := reconcile.NewEngine(singleOnly{t: table}, nil).Reconcile(context.Background(), local)
	require.NoError(t, err)

	assert.Empty(t, result.Snapshot)
	assert.Equal(t, []string{"update:rec1", "update:rec2"}, table.mutatingCalls())
}

func TestReconcile_OrphanPurge(t *testing.T) {
	table := newFakeTable(rec("rec1", "alive", models.StatusSynced))
	local := []models.LogRecord{
		rec("rec1", "alive", models.StatusSynced),
		rec("rec5", "deleted remotely", models.StatusSynced),
	}

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), local)
	require.NoError(t, err)

	assert.Equal(t, []string{"rec1"}, models.IDs(result.Snapshot))
	assert.Equal(t, 1, result.Summary.OrphansPurged)
}

func TestReconcile_RemoteTombstoneCountsAsAbsent(t *testing.T) {
	table := newFakeTable(rec("rec1", "alive", models.StatusSynced), rec("rec2", "gone", models.StatusPendingDelete))
	local := []models.LogRecord{
		rec("rec1", "alive", models.StatusSynced),
		rec("rec2", "gone", models.StatusSynced),
	}

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, []string{"rec1"}, models.IDs(result.Snapshot))
}

func TestReconcile_InitialFetchFailure(t *testing.T) {
	table := newFakeTable(rec("rec1", "a", models.StatusSynced))
	table.failListOn = 1
	local := []models.LogRecord{
		rec("rec1", "a", models.StatusSynced),
		rec("rec2", "b", models.StatusPendingDelete),
		rec("new-1", "c", models.StatusUnsynced),
	}

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), local)

	var perr *reconcile.PassError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, reconcile.KindTransport, perr.Kind)
	assert.Equal(t, reconcile.PhaseFetch, perr.Phase)
	assert.False(t, reconcile.IsConfiguration(err))
	assert.True(t, result.Aborted)
	assert.Equal(t, local, result.Snapshot)
	assert.Empty(t, table.mutatingCalls())
	assert.Equal(t, "sync failed, check the connection and try again", result.Message)
}

func TestReconcile_CreateFailureKeepsTemporaryRecord(t *testing.T) {
	table := newFakeTable(rec("rec1", "a", models.StatusSynced), rec("rec2", "b", models.StatusSynced))
	table.failCreate = errors.New("http 502")
	local := []models.LogRecord{
		rec("rec1", "a", models.StatusSynced),
		rec("rec2", "b", models.StatusPendingDelete),
		rec("new-1", "c", models.StatusUnsynced),
		rec("rec9", "orphan candidate", models.StatusSynced),
	}

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), local)

	var perr *reconcile.PassError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, reconcile.PhaseUpload, perr.Phase)
	assert.True(t, result.Aborted)

	// Tombstones are gone; the failed record stays under its temporary id and
	// nothing was purged as an orphan.
	assert.Equal(t, []models.LogRecord{
		rec("rec1", "a", models.StatusSynced),
		rec("new-1", "c", models.StatusUnsynced),
		rec("rec9", "orphan candidate", models.StatusSynced),
	}, result.Snapshot)
	assert.Equal(t, []string{"batch:1", "create:new-1"}, table.mutatingCalls())
}

func TestReconcile_RefetchFailureAborts(t *testing.T) {
	table := newFakeTable(rec("rec1", "a", models.StatusSynced))
	table.failListOn = 2
	local := []models.LogRecord{rec("rec1", "a edited", models.StatusUnsynced)}

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), local)

	var perr *reconcile.PassError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, reconcile.PhaseDownload, perr.Phase)
	assert.Equal(t, []models.LogRecord{rec("rec1", "a edited", models.StatusSynced)}, result.Snapshot)
}

func TestReconcile_NoMutationReusesSnapshot(t *testing.T) {
	table := newFakeTable(rec("rec1", "a", models.StatusSynced), rec("rec2", "b", models.StatusSynced))
	local := []models.LogRecord{rec("rec1", "a", models.StatusSynced)}

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), local)
	require.NoError(t, err)

	assert.Equal(t, 1, table.listCalls)
	assert.Equal(t, []string{"rec1", "rec2"}, models.IDs(result.Snapshot))
}

func TestReconcile_OutputFollowsRemoteOrder(t *testing.T) {
	table := newFakeTable(
		rec("rec3", "c", models.StatusSynced),
		rec("rec1", "a", models.StatusSynced),
		rec("rec2", "b", models.StatusSynced),
	)
	local := []models.LogRecord{
		rec("rec1", "a", models.StatusSynced),
		rec("rec2", "b", models.StatusSynced),
		rec("rec3", "c", models.StatusSynced),
	}

	result, err := reconcile.NewEngine(table, nil).Reconcile(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, []string{"rec3", "rec1", "rec2"}, models.IDs(result.Snapshot))
}

func TestReconcile_CustomResolver(t *testing.T) {
	table := newFakeTable(rec("rec1", "remote", models.StatusSynced))
	keepLocalContent := reconcile.ResolverFunc(func(local, remote models.LogRecord) models.LogRecord {
		remote.Content = local.Content
		return remote
	})

	result, err := reconcile.NewEngine(table, nil, reconcile.WithResolver(keepLocalContent)).
		Reconcile(context.Background(), []models.LogRecord{rec("rec1", "local", models.StatusSynced)})
	require.NoError(t, err)

	assert.Equal(t, "local", result.Snapshot[0].Content)
	assert.Equal(t, 0, result.Summary.Overwritten)
}

func TestConfigurationError(t *testing.T) {
	err := reconcile.ConfigurationError([]string{"app_id", "table_id"})

	assert.True(t, reconcile.IsConfiguration(err))
	assert.ErrorIs(t, err, reconcile.ErrConfigurationIncomplete)
	assert.Equal(t, reconcile.KindConfiguration, err.Kind)
	assert.Equal(t, reconcile.PhasePreflight, err.Phase)
	assert.Contains(t, err.Message(), "app_id, table_id")
}
