package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"roster-sync/core/reconcile"
	"roster-sync/core/storage/mocks"
	"roster-sync/feature/players/models"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestExporter(client *mocks.Client) *Exporter {
	e := NewExporter(client, "rosters", "players", zap.NewNop())
	e.now = func() time.Time { return fixedNow }
	return e
}

func view(version uint64, players ...models.Player) reconcile.View[models.Player] {
	return reconcile.View[models.Player]{Version: version, Entities: players}
}

func TestExport_CreatesBucketOnce(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "rosters").Return(false, nil).Once()
	client.On("MakeBucket", mock.Anything, "rosters", mock.Anything).Return(nil).Once()

	var uploaded []byte
	client.On("PutObject", mock.Anything, "rosters", "players/players.json", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			uploaded, _ = io.ReadAll(args.Get(3).(io.Reader))
			assert.Equal(t, int64(len(uploaded)), args.Get(4).(int64))
			assert.Equal(t, "application/json", args.Get(5).(minio.PutObjectOptions).ContentType)
		}).
		Return(minio.UploadInfo{}, nil)

	e := newTestExporter(client)
	require.NoError(t, e.Export(context.Background(), view(3, models.Player{ID: 1, Name: "Ann"})))
	require.NoError(t, e.Export(context.Background(), view(4)))

	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "PutObject", 2)
	assert.JSONEq(t, `{"version":4,"exported_at":"2025-03-01T12:00:00Z","players":[]}`, string(uploaded))
}

func TestExport_BucketCheckFails(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "rosters").Return(false, errors.New("denied"))

	err := newTestExporter(client).Export(context.Background(), view(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLatest(t *testing.T) {
	client := new(mocks.Client)
	doc := Document{Version: 2, ExportedAt: fixedNow, Players: []models.Player{{ID: 1, Name: "Ann"}}}
	data, _ := json.Marshal(doc)
	client.On("GetObject", mock.Anything, "rosters", "players/players.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(data)), nil)

	got, err := newTestExporter(client).Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, doc, *got)
}

func TestLatest_NotFound(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "rosters", "players/players.json", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})

	_, err := newTestExporter(client).Latest(context.Background())
	assert.ErrorIs(t, err, ErrNoExport)
}

func TestFollow_ExportsSettledViews(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "rosters").Return(true, nil)
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	views := make(chan reconcile.View[models.Player], 5)
	views <- view(0)                                                  // initial, skipped
	views <- reconcile.View[models.Player]{Version: 1, Loading: true} // loading, skipped
	views <- view(2, models.Player{ID: 1, Name: "Ann"})
	views <- view(2, models.Player{ID: 1, Name: "Ann"}) // not newer, skipped
	views <- view(3)
	close(views)

	e := newTestExporter(client)
	require.NoError(t, e.Follow(context.Background(), views))
	client.AssertNumberOfCalls(t, "PutObject", 2)
}

func TestFollow_KeepsGoingAfterFailure(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "rosters").Return(true, nil)
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("offline")).Once()
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	views := make(chan reconcile.View[models.Player], 2)
	views <- view(1)
	views <- view(2)
	close(views)

	require.NoError(t, newTestExporter(client).Follow(context.Background(), views))
	client.AssertNumberOfCalls(t, "PutObject", 2)
}

func TestFollow_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestExporter(new(mocks.Client)).Follow(ctx, make(chan reconcile.View[models.Player]))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandleLatest(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "rosters", "players/players.json", mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"}).Once()
	client.On("GetObject", mock.Anything, "rosters", "players/players.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader([]byte(`{"version":5,"players":[]}`))), nil)

	app := fiber.New()
	feature := NewFeature(newTestExporter(client), true, zap.NewNop())
	assert.Equal(t, "export", feature.Name())
	assert.True(t, feature.IsEnabled())
	require.NoError(t, feature.Load(app))

	resp, err := app.Test(httptest.NewRequest("GET", "/export/latest", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/export/latest", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var doc Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, uint64(5), doc.Version)
}

func TestExporter_Key(t *testing.T) {
	assert.Equal(t, "players/players.json", newTestExporter(new(mocks.Client)).Key())
	assert.Equal(t, "players.json", NewExporter(new(mocks.Client), "rosters", "", nil).Key())
	assert.Equal(t, "team-a/daily/players.json", NewExporter(new(mocks.Client), "rosters", "team-a/daily/", nil).Key())
}
