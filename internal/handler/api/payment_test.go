//go:build unit

package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"sosiego-api/internal/domain/reservation"
	"sosiego-api/internal/handler/api"
	resdto "sosiego-api/internal/handler/dto/response"
	"sosiego-api/internal/pkg/errs"
	"sosiego-api/internal/usecase/commands"
	"sosiego-api/tests/common/builder"
	"sosiego-api/tests/common/httptest"
	"sosiego-api/tests/common/testutil"
	commandsmock "sosiego-api/tests/mock/commands"
	queriesmock "sosiego-api/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type PaymentHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockPaymentCommands
	mockQueries  *queriesmock.MockPaymentQueries
	handler      *api.PaymentHandler
}

func (s *PaymentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockPaymentCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockPaymentQueries(s.mockCtrl)
	s.handler = api.NewPaymentHandler(s.mockCommands, s.mockQueries)

	s.router.POST("/payments/create-preference", s.handler.CreatePreference)
	s.router.POST("/payments/process", s.handler.ProcessPayment)
	s.router.POST("/payments/webhook", s.handler.Webhook)
	s.router.GET("/payments/:externalId/status", s.handler.GetStatus)
}

func (s *PaymentHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPaymentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}

// ================================================================================
// TestCreatePreference
// ================================================================================

func (s *PaymentHandlerTestSuite) TestCreatePreference() {
	url := "/payments/create-preference"

	s.Run("success: reservation mode returns 201 with checkout data", func() {
		reservationID := uuid.New()
		result := &commands.PreferenceResult{
			PaymentID:    uuid.New(),
			PreferenceID: "pref-123",
			InitPoint:    "https://mp.example/init",
			PublicKey:    "TEST-public-key",
		}
		s.mockCommands.EXPECT().CreatePreference(gomock.Any(), gomock.Any()).Return(result, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"reservationId": reservationID.String()}, "")

		var body resdto.PreferenceResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal("pref-123", body.PreferenceID)
		s.Equal("TEST-public-key", body.PublicKey)
	})

	s.Run("success: draft mode", func() {
		draftDTO := builder.NewReservationBuilder().BuildCreateRequestDTO()
		result := &commands.PreferenceResult{PaymentID: uuid.New(), PreferenceID: "pref-456"}
		s.mockCommands.EXPECT().CreatePreference(gomock.Any(), gomock.Any()).Return(result, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"reservation": testutil.DtoMap(s.T(), draftDTO)}, "")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)
	})

	s.Run("error: 400 when neither reservationId nor reservation is given", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, map[string]any{}, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "required")
	})

	s.Run("error: maps usecase errors", func() {
		cases := []struct {
			name           string
			commandsError  error
			expectedStatus int
		}{
			{name: "unknown reservation", commandsError: errs.ErrReservationNotFound, expectedStatus: http.StatusNotFound},
			{name: "already paid", commandsError: errs.ErrAlreadyPaid, expectedStatus: http.StatusConflict},
			{name: "gateway down", commandsError: errs.ErrGatewayUnavailable, expectedStatus: http.StatusBadGateway},
			{name: "unexpected failure", commandsError: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreatePreference(gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
					map[string]any{"reservationId": uuid.New().String()}, "")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, "")
			})
		}
	})
}

// ================================================================================
// TestProcessPayment
// ================================================================================

func (s *PaymentHandlerTestSuite) TestProcessPayment() {
	url := "/payments/process"
	reqBody := map[string]any{
		"token":         "tok-abc",
		"installments":  1,
		"payerEmail":    "maria@example.com",
		"reservationId": uuid.New().String(),
	}

	s.Run("success: returns the charge outcome", func() {
		result := &commands.ChargeResult{
			PaymentID:         uuid.New(),
			ExternalPaymentID: "118734251977",
			Status:            reservation.GatewayApproved,
			StatusDetail:      "accredited",
			Outcome:           commands.OutcomeApplied,
		}
		s.mockCommands.EXPECT().ChargeDirect(gomock.Any(), gomock.Any()).Return(result, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")

		var body resdto.ChargeResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("approved", body.Status)
		s.Equal("118734251977", body.ExternalPaymentID)
	})

	s.Run("error: 400 on missing token", func() {
		requestMap := testutil.DtoMap(s.T(), reqBody, testutil.Field("token", nil))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("error: 400 without reservation or draft", func() {
		requestMap := testutil.DtoMap(s.T(), reqBody, testutil.Field("reservationId", nil))
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "required")
	})

	s.Run("error: 502 when the gateway is down", func() {
		s.mockCommands.EXPECT().ChargeDirect(gomock.Any(), gomock.Any()).
			Return(nil, errs.ErrGatewayUnavailable).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadGateway, "")
	})
}

// ================================================================================
// TestWebhook
// ================================================================================

func (s *PaymentHandlerTestSuite) TestWebhook() {
	url := "/payments/webhook"

	s.Run("acknowledges a JSON body notification", func() {
		var params commands.NotificationParams
		s.mockCommands.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, n commands.NotificationParams) (commands.ReconcileOutcome, error) {
				params = n
				return commands.OutcomeApplied, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"type": "payment", "data": map[string]any{"id": "42"}}, "")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("received", body["status"])
		s.Equal("payment", params.Type)
		s.Equal("42", params.DataID)
	})

	s.Run("falls back to query parameters", func() {
		var params commands.NotificationParams
		s.mockCommands.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, n commands.NotificationParams) (commands.ReconcileOutcome, error) {
				params = n
				return commands.OutcomeApplied, nil
			}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url+"?topic=payment&id=42", nil, "")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
		s.Equal("payment", params.Type)
		s.Equal("42", params.DataID)
	})

	s.Run("still returns 200 when reconciliation fails", func() {
		s.mockCommands.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
			Return(commands.OutcomeGatewayUnavailable, errs.ErrGatewayUnavailable).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"type": "payment", "data": map[string]any{"id": "42"}}, "")

		var body map[string]string
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("received", body["status"])
	})

	s.Run("still returns 200 for notifications it ignores", func() {
		s.mockCommands.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
			Return(commands.OutcomeIgnored, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"type": "merchant_order"}, "")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})
}

// ================================================================================
// TestGetStatus
// ================================================================================

func (s *PaymentHandlerTestSuite) TestGetStatus() {
	s.Run("success", func() {
		view := builder.NewPaymentBuilder().
			WithStatus(reservation.GatewayApproved).
			WithExternalRef("118734251977").
			BuildView()
		s.mockQueries.EXPECT().GetStatus(gomock.Any(), "118734251977").Return(view, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/payments/118734251977/status", nil, "")

		var body resdto.PaymentStatusResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(view.ID, body.ID)
		s.Equal("approved", body.Status)
	})

	s.Run("error: 404 on unknown reference", func() {
		s.mockQueries.EXPECT().GetStatus(gomock.Any(), "nope").
			Return(nil, errs.ErrPaymentNotFound).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/payments/nope/status", nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Payment not found")
	})
}
