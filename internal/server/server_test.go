package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orderlyflow/internal/auth"
	"orderlyflow/internal/cache"
	"orderlyflow/internal/config"
	"orderlyflow/internal/metrics"
	"orderlyflow/internal/server"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT:      config.JWTConfig{Secret: "test-secret", Expiry: time.Hour},
		Security: config.SecurityConfig{CORSAllowedOrigins: "http://localhost:3000"},
	}
}

func setupServer(t *testing.T) (*server.Server, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return server.New(testConfig(), gormDB, cache.Nop{}, metrics.New(), nil), mock
}

func serve(s *server.Server, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	s.Handler.ServeHTTP(resp, req)
	return resp
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t)

	resp := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestAPI_RequiresToken(t *testing.T) {
	s, _ := setupServer(t)

	resp := serve(s, httptest.NewRequest(http.MethodGet, "/api/boards", nil))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAPI_ListBoards(t *testing.T) {
	// Arrange
	s, mock := setupServer(t)
	token, err := auth.NewIssuer(testConfig().JWT).GenerateToken("user-1", "org-1")
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT \* FROM "boards" WHERE organization_id = \$1`).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "organization_id", "columns"}).
			AddRow("board-1", "Roadmap", "org-1", `[]`))
	req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	// Act
	resp := serve(s, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"name":"Roadmap"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCORS_Preflight(t *testing.T) {
	s, _ := setupServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/boards", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	resp := serve(s, req)

	assert.Equal(t, "http://localhost:3000", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics_CountsRequests(t *testing.T) {
	s, _ := setupServer(t)
	serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	resp := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.Contains(resp.Body.String(), `http_requests_total{method="GET",path="/health",status="200"} 1`))
}
