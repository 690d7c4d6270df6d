package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/pkg/middleware"
)

// MockRedemptionService is a mock implementation of RedemptionService
type MockRedemptionService struct {
	mock.Mock
}

func (m *MockRedemptionService) Redeem(ctx context.Context, ticketID, stationEventID string) (*dto.ScanResponse, error) {
	args := m.Called(ctx, ticketID, stationEventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ScanResponse), args.Error(1)
}

func newScanRouter(svc *MockRedemptionService, stationEventID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/scan", func(c *gin.Context) {
		if stationEventID != "" {
			c.Set(middleware.ContextKeyStationID, "station-001")
			c.Set(middleware.ContextKeyStationEventID, stationEventID)
		}
		c.Next()
	}, NewScanHandler(svc).Scan)
	return router
}

func performScan(router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestScanHandler_Scan_Validated(t *testing.T) {
	svc := &MockRedemptionService{}
	svc.On("Redeem", mock.Anything, "ticket-001", "event-001").Return(&dto.ScanResponse{
		Result:   string(domain.ScanValidated),
		TicketID: "ticket-001",
		EventID:  "event-001",
	}, nil)

	router := newScanRouter(svc, "event-001")
	rec := performScan(router, dto.ScanRequest{TicketID: "ticket-001"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ScanResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.ScanValidated), resp.Result)
	svc.AssertExpectations(t)
}

func TestScanHandler_Scan_AlreadyUsedGone(t *testing.T) {
	scannedAt := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
	svc := &MockRedemptionService{}
	svc.On("Redeem", mock.Anything, "ticket-001", "event-001").
		Return(nil, domain.NewAlreadyUsedError(scannedAt))

	router := newScanRouter(svc, "event-001")
	rec := performScan(router, dto.ScanRequest{TicketID: "ticket-001"})

	assert.Equal(t, http.StatusGone, rec.Code)

	var resp dto.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ALREADY_USED", resp.Code)
	assert.Contains(t, resp.Message, scannedAt.Format(time.RFC3339))
}

func TestScanHandler_Scan_WrongEventConflict(t *testing.T) {
	svc := &MockRedemptionService{}
	svc.On("Redeem", mock.Anything, "ticket-001", "event-002").
		Return(nil, domain.ErrWrongEvent)

	router := newScanRouter(svc, "event-002")
	rec := performScan(router, dto.ScanRequest{TicketID: "ticket-001"})

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp dto.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "WRONG_EVENT", resp.Code)
}

func TestScanHandler_Scan_NotFound(t *testing.T) {
	svc := &MockRedemptionService{}
	svc.On("Redeem", mock.Anything, "ticket-404", "event-001").
		Return(nil, domain.ErrTicketNotFound)

	router := newScanRouter(svc, "event-001")
	rec := performScan(router, dto.ScanRequest{TicketID: "ticket-404"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScanHandler_Scan_MissingStationContext(t *testing.T) {
	svc := &MockRedemptionService{}
	router := newScanRouter(svc, "")
	rec := performScan(router, dto.ScanRequest{TicketID: "ticket-001"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Redeem")
}

func TestScanHandler_Scan_MissingTicketID(t *testing.T) {
	svc := &MockRedemptionService{}
	router := newScanRouter(svc, "event-001")
	rec := performScan(router, map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Redeem")
}
