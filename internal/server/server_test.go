package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/require"
)

const schemaStatusQuery = `SELECT version, dirty FROM schema_migrations LIMIT 1`

func newMockServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New("127.0.0.1:0", db, "release", nil), mock
}

func getHealth(s *Server) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHealth_Healthy(t *testing.T) {
	s, mock := newMockServer(t)
	mock.ExpectPing()
	mock.ExpectQuery(regexp.QuoteMeta(schemaStatusQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"version", "dirty"}).AddRow(1, false))

	w, body := getHealth(s)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, map[string]interface{}{"version": float64(1), "dirty": false}, body["schema"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth_Unhealthy(t *testing.T) {
	tests := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
	}{
		{
			name: "database unreachable",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing().WillReturnError(errors.New("connection refused"))
			},
		},
		{
			name: "dirty schema",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery(regexp.QuoteMeta(schemaStatusQuery)).
					WillReturnRows(sqlmock.NewRows([]string{"version", "dirty"}).AddRow(1, true))
			},
		},
		{
			name: "no migrations applied",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery(regexp.QuoteMeta(schemaStatusQuery)).
					WillReturnRows(sqlmock.NewRows([]string{"version", "dirty"}))
			},
		},
		{
			name: "status query fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery(regexp.QuoteMeta(schemaStatusQuery)).
					WillReturnError(errors.New(`relation "schema_migrations" does not exist`))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMockServer(t)
			tc.setup(mock)

			w, body := getHealth(s)
			require.Equal(t, http.StatusServiceUnavailable, w.Code)
			require.Equal(t, "unhealthy", body["status"])
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "epcis_test_total",
		Help: "Test counter.",
	}).Inc()

	s := New("127.0.0.1:0", nil, "release", reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "epcis_test_total 1"))
}
