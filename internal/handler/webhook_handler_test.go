package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/internal/gateway"
	"github.com/eventease/ticketing/internal/service"
)

func newWebhookRouter(payments gateway.PaymentGateway, settle *MockSettlementService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/payment", NewWebhookHandler(payments, settle).HandlePayment)
	return router
}

func postWebhook(router *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookHandler_HandlePayment_SettlesConfirmedSession(t *testing.T) {
	payments := &gateway.MockGateway{
		VerifyWebhookFunc: func(payload []byte, signature string) (*gateway.PaymentConfirmed, error) {
			return &gateway.PaymentConfirmed{
				SessionID: "cs_test_001",
				EventID:   "event-001",
				TypeName:  "vip",
				UserID:    "user-001",
			}, nil
		},
	}

	settle := &MockSettlementService{}
	settle.On("Settle", mock.Anything, mock.MatchedBy(func(in *service.SettleInput) bool {
		return in.SessionID == "cs_test_001" && in.EventID == "event-001" && in.TypeName == "vip"
	})).Return(&dto.TicketResponse{ID: "ticket-001"}, nil)

	router := newWebhookRouter(payments, settle)
	rec := postWebhook(router, []byte(`{"type":"checkout.session.completed"}`), "sig")

	assert.Equal(t, http.StatusOK, rec.Code)
	settle.AssertExpectations(t)
}

func TestWebhookHandler_HandlePayment_InvalidSignature(t *testing.T) {
	payments := &gateway.MockGateway{
		VerifyWebhookFunc: func(payload []byte, signature string) (*gateway.PaymentConfirmed, error) {
			return nil, errors.New("signature mismatch")
		},
	}
	settle := &MockSettlementService{}

	router := newWebhookRouter(payments, settle)
	rec := postWebhook(router, []byte(`{}`), "bad-sig")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	settle.AssertNotCalled(t, "Settle")
}

func TestWebhookHandler_HandlePayment_TerminalRejectionAcked(t *testing.T) {
	payments := &gateway.MockGateway{
		VerifyWebhookFunc: func(payload []byte, signature string) (*gateway.PaymentConfirmed, error) {
			return &gateway.PaymentConfirmed{
				SessionID: "cs_test_002",
				EventID:   "event-001",
				TypeName:  "vip",
				UserID:    "user-001",
			}, nil
		},
	}

	settle := &MockSettlementService{}
	settle.On("Settle", mock.Anything, mock.Anything).Return(nil, domain.ErrSoldOut)

	router := newWebhookRouter(payments, settle)
	rec := postWebhook(router, []byte(`{"type":"checkout.session.completed"}`), "sig")

	// A sold-out rejection is final; answering non-2xx would make the
	// gateway redeliver the same confirmation for days
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SETTLEMENT_REJECTED")
}

func TestWebhookHandler_HandlePayment_TransientFailureRetried(t *testing.T) {
	payments := &gateway.MockGateway{
		VerifyWebhookFunc: func(payload []byte, signature string) (*gateway.PaymentConfirmed, error) {
			return &gateway.PaymentConfirmed{
				SessionID: "cs_test_003",
				EventID:   "event-001",
				TypeName:  "vip",
				UserID:    "user-001",
			}, nil
		},
	}

	settle := &MockSettlementService{}
	settle.On("Settle", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	router := newWebhookRouter(payments, settle)
	rec := postWebhook(router, []byte(`{"type":"checkout.session.completed"}`), "sig")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebhookHandler_HandlePayment_IgnoredEventTypeAcked(t *testing.T) {
	// VerifyWebhook returns (nil, nil) for event types the core ignores
	payments := &gateway.MockGateway{}
	settle := &MockSettlementService{}

	router := newWebhookRouter(payments, settle)
	rec := postWebhook(router, []byte(`{"type":"payment_intent.created"}`), "sig")

	assert.Equal(t, http.StatusOK, rec.Code)
	settle.AssertNotCalled(t, "Settle")
}
