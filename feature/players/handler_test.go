package players

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"roster-sync/feature/players/api"
	"roster-sync/feature/players/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, snaps stubSnapshots) (*fiber.App, *mockRemote) {
	t.Helper()
	app := fiber.New()
	remote := new(mockRemote)
	feature := NewFeature(remote, startEngine(t, snaps, &stubEvents{}), zap.NewNop())
	require.NoError(t, feature.Load(app))
	return app, remote
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	out := map[string]any{}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &out)
	}
	return resp.StatusCode, out
}

func TestFeature(t *testing.T) {
	feature := NewFeature(new(mockRemote), nil, zap.NewNop())
	assert.Equal(t, "players", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NotNil(t, feature.Service())
}

func TestHandleList(t *testing.T) {
	app, _ := setupTestApp(t, stubSnapshots{players: []models.Player{{ID: 1, Name: "Ann", Age: intp(30)}}})

	resp, err := app.Test(httptest.NewRequest("GET", "/players", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var view View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, []models.Player{{ID: 1, Name: "Ann", Age: intp(30)}}, view.Entities)
	assert.False(t, view.Loading)
}

func TestHandleCreate(t *testing.T) {
	app, remote := setupTestApp(t, stubSnapshots{})
	remote.On("CreatePlayer", mock.Anything, models.NewPlayer{Name: "Ann", Age: intp(30)}).
		Return(models.Player{ID: 1, Name: "Ann", Age: intp(30)}, nil)

	status, _ := doJSON(t, app, "POST", "/players", `{"name":"Ann","age":"30"}`)
	assert.Equal(t, fiber.StatusAccepted, status)
	remote.AssertExpectations(t)
}

func TestHandleCreate_Invalid(t *testing.T) {
	app, _ := setupTestApp(t, stubSnapshots{})

	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name":"","age":30}`},
		{"bad age", `{"name":"Ann","age":"thirty"}`},
		{"fractional age", `{"name":"Ann","age":30.5}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, "POST", "/players", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleCreate_BackendFailure(t *testing.T) {
	app, remote := setupTestApp(t, stubSnapshots{})
	remote.On("CreatePlayer", mock.Anything, mock.Anything).Return(models.Player{}, errors.New("timeout"))

	status, body := doJSON(t, app, "POST", "/players", `{"name":"Ann","age":null}`)
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Contains(t, body["error"], "failed to add player")

	_, view := doJSON(t, app, "GET", "/players", "")
	assert.Equal(t, "failed to add player: timeout", view["error"])

	status, _ = doJSON(t, app, "DELETE", "/players/error", "")
	assert.Equal(t, fiber.StatusNoContent, status)

	_, view = doJSON(t, app, "GET", "/players", "")
	assert.Nil(t, view["error"])
}

func TestHandleUpdate(t *testing.T) {
	app, remote := setupTestApp(t, stubSnapshots{})
	remote.On("UpdatePlayer", mock.Anything, 4, models.NewPlayer{Name: "Dee"}).Return(nil)

	status, _ := doJSON(t, app, "PUT", "/players/4", `{"name":"Dee"}`)
	assert.Equal(t, fiber.StatusAccepted, status)

	status, _ = doJSON(t, app, "PUT", "/players/abc", `{"name":"Dee"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHandleDelete(t *testing.T) {
	app, remote := setupTestApp(t, stubSnapshots{})
	remote.On("DeletePlayer", mock.Anything, 1).Return(nil)
	remote.On("DeletePlayer", mock.Anything, 9).Return(&api.StatusError{Method: "DELETE", Path: "/players/9", Code: 404})

	status, _ := doJSON(t, app, "DELETE", "/players/1", "")
	assert.Equal(t, fiber.StatusAccepted, status)

	status, _ = doJSON(t, app, "DELETE", "/players/9", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHandleRegisterToken(t *testing.T) {
	app, remote := setupTestApp(t, stubSnapshots{})
	remote.On("RegisterFCMToken", mock.Anything, models.FCMToken{UserID: "ann@example.com", Token: "tok"}).Return(nil)

	status, _ := doJSON(t, app, "POST", "/players/fcm-token", `{"userId":"ann@example.com","token":"tok"}`)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = doJSON(t, app, "POST", "/players/fcm-token", `{"userId":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
