package checks

import (
	"context"
	"errors"
	"testing"

	"worklog/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCheckArchive(t *testing.T) {
	t.Run("Bucket Missing", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "worklog").Return(false, nil)

		report, err := CheckArchive(context.Background(), client, "worklog", "snapshots")
		require.NoError(t, err)
		assert.False(t, report.Exists)
		client.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Counts Snapshots", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "worklog").Return(true, nil)
		ch := make(chan minio.ObjectInfo, 3)
		ch <- minio.ObjectInfo{Key: "snapshots/20240305T093000.000Z.json.zst"}
		ch <- minio.ObjectInfo{Key: "snapshots/notes.txt"}
		ch <- minio.ObjectInfo{Key: "snapshots/20240306T093000.000Z.json.zst"}
		close(ch)
		client.On("ListObjects", mock.Anything, "worklog", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
			return opts.Prefix == "snapshots/"
		})).Return((<-chan minio.ObjectInfo)(ch))

		report, err := CheckArchive(context.Background(), client, "worklog", "/snapshots/")
		require.NoError(t, err)
		assert.True(t, report.Exists)
		assert.Equal(t, 2, report.Snapshots)
	})

	t.Run("List Error Stops Listing", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "worklog").Return(true, nil)
		ch := make(chan minio.ObjectInfo, 2)
		ch <- minio.ObjectInfo{Err: errors.New("access denied")}
		ch <- minio.ObjectInfo{Key: "snapshots/20240305T093000.000Z.json.zst"}
		close(ch)
		var listCtx context.Context
		client.On("ListObjects", mock.Anything, "worklog", mock.Anything).
			Run(func(args mock.Arguments) { listCtx = args.Get(0).(context.Context) }).
			Return((<-chan minio.ObjectInfo)(ch))

		report, err := CheckArchive(context.Background(), client, "worklog", "snapshots")
		assert.Error(t, err)
		assert.Nil(t, report)
		require.NotNil(t, listCtx)
		assert.ErrorIs(t, listCtx.Err(), context.Canceled)
	})

	t.Run("Error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "worklog").Return(false, errors.New("connection refused"))

		report, err := CheckArchive(context.Background(), client, "worklog", "")
		assert.Error(t, err)
		assert.Nil(t, report)
	})
}

func TestFixArchive(t *testing.T) {
	client := new(mocks.Client)
	client.On("MakeBucket", mock.Anything, "worklog", mock.Anything).Return(nil)

	err := FixArchive(context.Background(), client, "worklog", zap.NewNop())
	assert.NoError(t, err)
	client.AssertExpectations(t)
}
