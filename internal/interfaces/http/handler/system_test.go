package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolStub struct{ inUse int }

func (poolStub) Ping() error  { return nil }
func (p poolStub) InUse() int { return p.inUse }

type pingOnly struct{}

func (pingOnly) Ping() error { return nil }

func systemInfo(t *testing.T, db Pinger) map[string]any {
	t.Helper()
	r := gin.New()
	r.GET("/info", NewSystemHandler("ledger", "1.2.3", db).GetSystemInfo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/info", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	t.Run("pool usage reported", func(t *testing.T) {
		data := systemInfo(t, poolStub{inUse: 3})
		assert.Equal(t, "ledger", data["name"])
		assert.Equal(t, "1.2.3", data["version"])
		assert.EqualValues(t, 3, data["db_connections_in_use"])
	})

	t.Run("plain pinger", func(t *testing.T) {
		data := systemInfo(t, pingOnly{})
		assert.NotContains(t, data, "db_connections_in_use")
	})

	t.Run("no database", func(t *testing.T) {
		data := systemInfo(t, nil)
		assert.NotEmpty(t, data["go_version"])
	})
}
