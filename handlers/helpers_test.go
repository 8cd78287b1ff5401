package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Path identifiers must be well-formed UUIDs to get past handler validation.
const (
	catFoodID    = "a3bb1890-42cc-4af8-9b73-6c4c9e2f8a11"
	catGlobalID  = "5d3e8a24-7f61-4c2b-8d9e-0a1b2c3d4e5f"
	catOtherID   = "e7c6b5a4-d3f2-4e1a-9b8c-7d6e5f4a3b2c"
	catMissingID = "9e8d7c6b-5a49-4382-b716-05f4e3d2c1b0"
	txnMainID    = "0f1e2d3c-4b5a-4697-8889-9a0b1c2d3e4f"
	txnOtherID   = "4c1d2e3f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	txnMissingID = "d4e5f6a7-b8c9-4d0e-9f1a-2b3c4d5e6f70"
	otherUserID  = "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e"
)

// fakeAuth stands in for the JWT middleware in handler tests.
func fakeAuth(userID string, isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("email", userID+"@example.com")
		c.Set("is_admin", isAdmin)
		c.Next()
	}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	return db, mock
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
