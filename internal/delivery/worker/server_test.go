package worker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tasker/config"
	"tasker/internal/delivery/worker/handler"
	"tasker/internal/domain/constants"
	"tasker/internal/domain/service"
	"tasker/internal/infra/pubsub"
	mockUsecase "tasker/internal/mocks/usecase"
	"tasker/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWorkerEcho(t *testing.T, cfg *config.Config, validator handler.PushTokenValidator) (*echo.Echo, *mockUsecase.MockTaskActivityUsecase) {
	t.Helper()

	activityUC := mockUsecase.NewMockTaskActivityUsecase(t)
	logger := newTestLogger()
	pushHandler := handler.NewPushHandler(handler.PushHandlerParams{
		Config:     cfg,
		Logger:     logger,
		ActivityUC: activityUC,
		Validator:  validator,
	})

	return NewEcho(cfg, logger, pushHandler), activityUC
}

func pushBody(t *testing.T, messageID string, event *service.TaskEvent, attributes map[string]string) string {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var msg handler.PubSubMessage
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.MessageID = messageID
	msg.Message.Attributes = attributes
	msg.Subscription = "projects/local/subscriptions/task-events"

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	return string(body)
}

func push(e *echo.Echo, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newWorkerEcho(t, &config.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandlePush_RecordsEvent(t *testing.T) {
	e, activityUC := newWorkerEcho(t, &config.Config{}, nil)
	event := &service.TaskEvent{
		Type:       service.TaskEventCreated,
		TaskID:     "t-1",
		UserID:     uuid.NewString(),
		OccurredAt: time.Now().UTC(),
	}

	activityUC.EXPECT().
		RecordTaskEvent(mock.Anything, mock.MatchedBy(func(in usecase.RecordTaskEventInput) bool {
			return in.MessageID == "m-1" && in.Event.TaskID == "t-1" && in.Event.Type == service.TaskEventCreated
		})).
		Return(true, nil)

	rec := push(e, pushBody(t, "m-1", event, map[string]string{"request_id": "req-1"}), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlePush_Outcomes(t *testing.T) {
	event := &service.TaskEvent{Type: service.TaskEventUpdated, TaskID: "t-1", UserID: uuid.NewString()}

	tests := []struct {
		name     string
		recorded bool
		err      error
		want     int
	}{
		{name: "redelivered", recorded: false, want: http.StatusOK},
		{name: "invalid event is acknowledged", err: errors.Wrap(usecase.ErrInvalidTaskEvent, "missing task id"), want: http.StatusOK},
		{name: "storage failure is retried", err: errors.New("connection refused"), want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, activityUC := newWorkerEcho(t, &config.Config{}, nil)
			activityUC.EXPECT().RecordTaskEvent(mock.Anything, mock.Anything).Return(tt.recorded, tt.err)

			rec := push(e, pushBody(t, "m-1", event, nil), "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandlePush_MalformedMessages(t *testing.T) {
	e, _ := newWorkerEcho(t, &config.Config{}, nil)

	rec := push(e, `{"message":{"data":"%%%","messageId":"m-1"}}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	notJSON := base64.StdEncoding.EncodeToString([]byte("not json"))
	rec = push(e, `{"message":{"data":"`+notJSON+`","messageId":"m-1"}}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePush_VerifiesGoogleToken(t *testing.T) {
	cfg := &config.Config{PubSub: &config.PubSubConfig{Provider: constants.PubSubProviderGoogle}}
	cfg.Env.Env = constants.EnvProduction

	validator := func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		assert.Equal(t, "http://example.com/push", audience)
		switch token {
		case "google-token":
			return &idtoken.Payload{Issuer: "https://accounts.google.com", Claims: map[string]any{"email_verified": true}}, nil
		case "foreign-token":
			return &idtoken.Payload{Issuer: "https://issuer.example.com"}, nil
		default:
			return nil, errors.New("invalid token")
		}
	}

	e, activityUC := newWorkerEcho(t, cfg, validator)
	body := pushBody(t, "m-1", &service.TaskEvent{Type: service.TaskEventDeleted, TaskID: "t-1", UserID: uuid.NewString()}, nil)

	assert.Equal(t, http.StatusUnauthorized, push(e, body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, push(e, body, "forged").Code)
	assert.Equal(t, http.StatusUnauthorized, push(e, body, "foreign-token").Code)

	activityUC.EXPECT().RecordTaskEvent(mock.Anything, mock.Anything).Return(true, nil).Once()
	assert.Equal(t, http.StatusOK, push(e, body, "google-token").Code)
}

func TestLocalPublisherDeliversToWorker(t *testing.T) {
	e, activityUC := newWorkerEcho(t, &config.Config{}, nil)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	userID := uuid.NewString()
	activityUC.EXPECT().
		RecordTaskEvent(mock.Anything, mock.MatchedBy(func(in usecase.RecordTaskEventInput) bool {
			return in.MessageID != "" &&
				in.Event.UserID == userID &&
				in.Event.RequestID == "req-42" &&
				len(in.Event.RemovedIDs) == 1 && in.Event.RemovedIDs[0] == "t-2"
		})).
		Return(true, nil)

	publisher := pubsub.NewLocalHTTPPublisher(server.URL+"/push", newTestLogger())
	err := publisher.PublishTaskEvent(context.Background(), &service.TaskEvent{
		RequestID:  "req-42",
		Type:       service.TaskEventDeleted,
		TaskID:     "t-1",
		UserID:     userID,
		RemovedIDs: []string{"t-2"},
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}
