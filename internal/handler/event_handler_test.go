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
)

// MockEventService is a mock implementation of EventService
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, tenantID string, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EventResponse), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EventResponse), args.Error(1)
}

func (m *MockEventService) ListTickets(ctx context.Context, eventID string, limit, offset int) ([]*dto.TicketResponse, error) {
	args := m.Called(ctx, eventID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.TicketResponse), args.Error(1)
}

func newEventRouter(svc *MockEventService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewEventHandler(svc)
	router := gin.New()
	router.POST("/events", h.CreateEvent)
	router.GET("/events/:id", h.GetEvent)
	router.GET("/events/:id/tickets", h.ListTickets)
	return router
}

func TestEventHandler_CreateEvent_Created(t *testing.T) {
	svc := &MockEventService{}
	svc.On("CreateEvent", mock.Anything, "tenant-001", mock.Anything).
		Return(&dto.EventResponse{ID: "event-001", TenantID: "tenant-001", Name: "Launch Party"}, nil)

	router := newEventRouter(svc)
	payload, _ := json.Marshal(dto.CreateEventRequest{
		Name:        "Launch Party",
		StartsAt:    time.Now().Add(24 * time.Hour),
		TicketTypes: []dto.TicketTypeRequest{{Name: "general", Quantity: 100}},
	})
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", "tenant-001")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestEventHandler_CreateEvent_MissingTenant(t *testing.T) {
	svc := &MockEventService{}
	router := newEventRouter(svc)

	payload, _ := json.Marshal(dto.CreateEventRequest{
		Name:        "Launch Party",
		StartsAt:    time.Now().Add(24 * time.Hour),
		TicketTypes: []dto.TicketTypeRequest{{Name: "general", Quantity: 100}},
	})
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_TENANT", resp.Code)
	svc.AssertNotCalled(t, "CreateEvent")
}

func TestEventHandler_GetEvent_NotFound(t *testing.T) {
	svc := &MockEventService{}
	svc.On("GetEvent", mock.Anything, "event-404").Return(nil, domain.ErrEventNotFound)

	router := newEventRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/events/event-404", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp dto.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "EVENT_NOT_FOUND", resp.Code)
}

func TestEventHandler_ListTickets_DefaultPagination(t *testing.T) {
	svc := &MockEventService{}
	svc.On("ListTickets", mock.Anything, "event-001", 50, 0).
		Return([]*dto.TicketResponse{{ID: "ticket-001"}}, nil)

	router := newEventRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/events/event-001/tickets", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
