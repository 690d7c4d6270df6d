package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-station-secret"

func newAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/scan", StationAuth(secret), func(c *gin.Context) {
		stationID, _ := GetStationID(c)
		eventID, _ := GetStationEventID(c)
		c.JSON(http.StatusOK, gin.H{"station_id": stationID, "event_id": eventID})
	})
	return router
}

func TestStationToken_RoundTrip(t *testing.T) {
	token, err := IssueStationToken(testSecret, "station-001", "event-001", time.Hour)
	require.NoError(t, err)

	claims, err := ParseStationToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "station-001", claims.StationID)
	assert.Equal(t, "event-001", claims.EventID)
}

func TestParseStationToken_WrongSecret(t *testing.T) {
	token, err := IssueStationToken(testSecret, "station-001", "event-001", time.Hour)
	require.NoError(t, err)

	_, err = ParseStationToken("another-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseStationToken_Expired(t *testing.T) {
	token, err := IssueStationToken(testSecret, "station-001", "event-001", -time.Minute)
	require.NoError(t, err)

	_, err = ParseStationToken(testSecret, token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseStationToken_MissingEventBinding(t *testing.T) {
	token, err := IssueStationToken(testSecret, "station-001", "", time.Hour)
	require.NoError(t, err)

	_, err = ParseStationToken(testSecret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStationAuth_SetsStationContext(t *testing.T) {
	token, err := IssueStationToken(testSecret, "station-001", "event-001", time.Hour)
	require.NoError(t, err)

	router := newAuthRouter(testSecret)
	req := httptest.NewRequest(http.MethodPost, "/scan", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event-001")
}

func TestStationAuth_Unauthorized(t *testing.T) {
	router := newAuthRouter(testSecret)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not a bearer token", header: "Basic abc123"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/scan", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
