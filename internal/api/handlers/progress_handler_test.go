package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shydevcorp/codejeet/internal/middleware/auth"
	"github.com/shydevcorp/codejeet/internal/progress"
)

const testSecret = "progress-handler-secret"

type fakeProgressStore struct {
	completed map[string][]string
	upserts   map[string][]progress.Entry
	fetchErr  error
	writeErr  error
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{
		completed: make(map[string][]string),
		upserts:   make(map[string][]progress.Entry),
	}
}

func (f *fakeProgressStore) CompletedSlugs(ctx context.Context, userID string) ([]string, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.completed[userID], nil
}

func (f *fakeProgressStore) UpsertProgress(ctx context.Context, userID string, entry progress.Entry) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.upserts[userID] = append(f.upserts[userID], entry)
	return nil
}

func (f *fakeProgressStore) BatchUpsertProgress(ctx context.Context, userID string, entries []progress.Entry) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.upserts[userID] = append(f.upserts[userID], entries...)
	return nil
}

func newProgressApp(store progress.Store) *fiber.App {
	app := fiber.New()
	handler := NewProgressHandler(progress.NewSynchronizer(store))

	group := app.Group("/api/progress", auth.Middleware(testSecret))
	group.Get("/", handler.GetProgress)
	group.Post("/", handler.UpdateProgress)
	group.Put("/", handler.SyncProgress)
	return app
}

func signedToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, app *fiber.App, method, target, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestProgressRequiresToken(t *testing.T) {
	app := newProgressApp(newFakeProgressStore())

	req := httptest.NewRequest(http.MethodGet, "/api/progress/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProgressRejectsForeignSignature(t *testing.T) {
	app := newProgressApp(newFakeProgressStore())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
	signed, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	resp, _ := doRequest(t, app, http.MethodGet, "/api/progress/", signed, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetProgress(t *testing.T) {
	store := newFakeProgressStore()
	store.completed["user-1"] = []string{"two-sum", "lru-cache"}
	app := newProgressApp(store)

	resp, body := doRequest(t, app, http.MethodGet, "/api/progress/", signedToken(t, "user-1"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "private, no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))

	assert.Equal(t, map[string]interface{}{
		"two-sum":   true,
		"lru-cache": true,
	}, body["progress"])
}

func TestGetProgressFailSoft(t *testing.T) {
	store := newFakeProgressStore()
	store.fetchErr = errors.New("connection refused")
	app := newProgressApp(store)

	resp, body := doRequest(t, app, http.MethodGet, "/api/progress/", signedToken(t, "user-1"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["progress"])
}

func TestUpdateProgress(t *testing.T) {
	store := newFakeProgressStore()
	app := newProgressApp(store)

	resp, body := doRequest(t, app, http.MethodPost, "/api/progress/", signedToken(t, "user-1"), fiber.Map{
		"questionSlug": "two-sum",
		"completed":    true,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	require.Len(t, store.upserts["user-1"], 1)
	entry := store.upserts["user-1"][0]
	assert.Equal(t, "two-sum", entry.QuestionSlug)
	assert.True(t, entry.Completed)
	assert.NotNil(t, entry.CompletedAt)
}

func TestUpdateProgressValidation(t *testing.T) {
	app := newProgressApp(newFakeProgressStore())
	token := signedToken(t, "user-1")

	for name, payload := range map[string]fiber.Map{
		"missing slug":      {"completed": true},
		"missing completed": {"questionSlug": "two-sum"},
		"empty body":        {},
	} {
		resp, body := doRequest(t, app, http.MethodPost, "/api/progress/", token, payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
		assert.Contains(t, body["error"], "questionSlug", name)
	}
}

func TestUpdateProgressStorageFailure(t *testing.T) {
	store := newFakeProgressStore()
	store.writeErr = errors.New("deadlock detected")
	app := newProgressApp(store)

	resp, _ := doRequest(t, app, http.MethodPost, "/api/progress/", signedToken(t, "user-1"), fiber.Map{
		"questionSlug": "two-sum",
		"completed":    true,
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestSyncProgressLocalWins(t *testing.T) {
	store := newFakeProgressStore()
	store.completed["user-1"] = []string{"two-sum", "lru-cache"}
	app := newProgressApp(store)

	resp, body := doRequest(t, app, http.MethodPut, "/api/progress/", signedToken(t, "user-1"), fiber.Map{
		"localProgress": map[string]bool{
			"two-sum":      false,
			"merge-k-sorted": true,
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, map[string]interface{}{
		"two-sum":        false,
		"lru-cache":      true,
		"merge-k-sorted": true,
	}, body["progress"])

	// only the client-held entries get persisted
	assert.Len(t, store.upserts["user-1"], 2)
}

func TestSyncProgressEmptyBody(t *testing.T) {
	store := newFakeProgressStore()
	store.completed["user-1"] = []string{"two-sum"}
	app := newProgressApp(store)

	resp, body := doRequest(t, app, http.MethodPut, "/api/progress/", signedToken(t, "user-1"), fiber.Map{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"two-sum": true}, body["progress"])
	assert.Empty(t, store.upserts["user-1"])
}

func TestSyncProgressFetchFailure(t *testing.T) {
	store := newFakeProgressStore()
	store.fetchErr = errors.New("connection refused")
	app := newProgressApp(store)

	resp, _ := doRequest(t, app, http.MethodPut, "/api/progress/", signedToken(t, "user-1"), fiber.Map{
		"localProgress": map[string]bool{"two-sum": true},
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
