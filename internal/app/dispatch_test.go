package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sms-dispatch/internal/domain"
	"sms-dispatch/internal/ports"
)

type dispatchFixture struct {
	repo    *MockMessageRepository
	gateway *MockGateway
	events  *MockEventPublisher
	d       *Dispatcher
}

func newDispatchFixture() *dispatchFixture {
	f := &dispatchFixture{
		repo:    new(MockMessageRepository),
		gateway: new(MockGateway),
		events:  new(MockEventPublisher),
	}
	f.events.On("PublishStatusChanged", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.d = NewDispatcher(f.repo, f.gateway, f.events, discardLogger())
	return f
}

func sentMessage(status domain.Status) *domain.Message {
	msg := domain.NewMessage(uuid.New(), "+221771234567", "hello", nil)
	msg.Status = status
	msg.GatewayMessageID = "ABC123"
	return &msg
}

func TestSend_Success(t *testing.T) {
	f := newDispatchFixture()
	sender := uuid.New()

	f.repo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Status == domain.StatusPending && m.RecipientNumber == "+221771234567"
	})).Return(nil).Once()
	f.gateway.On("SubmitMessage", mock.Anything, "+221771234567", "hello").
		Return(ports.SubmitResult{ResourceURL: "https://gw/requests/ABC123", GatewayMessageID: "ABC123"}, nil).Once()
	f.repo.On("UpdateMessage", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil).Once()

	msg, err := f.d.Send(context.Background(), SendRequest{SenderID: sender, RecipientNumber: "77 123 45 67", Body: "hello"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSent, msg.Status)
	assert.Equal(t, "ABC123", msg.GatewayMessageID)
	assert.Equal(t, sender, msg.SenderID)
	f.repo.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
	f.events.AssertCalled(t, "PublishStatusChanged", mock.Anything, mock.MatchedBy(func(e ports.StatusChanged) bool {
		return e.From == domain.StatusPending && e.To == domain.StatusSent
	}))
}

func TestSend_GatewayFailureMarksFailed(t *testing.T) {
	f := newDispatchFixture()
	gwErr := domain.NewGatewayError(domain.KindGatewaySubmit, "submit rejected", 400, "{}", nil)

	f.repo.On("CreateMessage", mock.Anything, mock.Anything).Return(nil).Once()
	f.gateway.On("SubmitMessage", mock.Anything, mock.Anything, mock.Anything).Return(ports.SubmitResult{}, gwErr).Once()
	f.repo.On("UpdateMessage", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Status == domain.StatusFailed && m.GatewayMessageID == ""
	})).Return(nil).Once()

	msg, err := f.d.Send(context.Background(), SendRequest{SenderID: uuid.New(), RecipientNumber: "+221771234567", Body: "hello"})
	require.Error(t, err)
	assert.Equal(t, domain.KindGatewaySubmit, domain.KindOf(err))
	require.NotNil(t, msg)
	assert.Equal(t, domain.StatusFailed, msg.Status)
	assert.Empty(t, msg.GatewayMessageID)

	f.repo.AssertNumberOfCalls(t, "CreateMessage", 1)
	f.repo.AssertNumberOfCalls(t, "UpdateMessage", 1)
}

func TestSend_MarkFailedErrorIsReported(t *testing.T) {
	f := newDispatchFixture()
	gwErr := domain.NewGatewayError(domain.KindGatewaySubmit, "submit rejected", 400, "{}", nil)
	dbErr := errors.New("database unavailable")

	f.repo.On("CreateMessage", mock.Anything, mock.Anything).Return(nil).Once()
	f.gateway.On("SubmitMessage", mock.Anything, mock.Anything, mock.Anything).Return(ports.SubmitResult{}, gwErr).Once()
	f.repo.On("UpdateMessage", mock.Anything, mock.Anything).Return(dbErr).Once()

	_, err := f.d.Send(context.Background(), SendRequest{SenderID: uuid.New(), RecipientNumber: "+221771234567", Body: "hello"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, domain.KindGatewaySubmit, domain.KindOf(err))
	f.events.AssertNotCalled(t, "PublishStatusChanged", mock.Anything, mock.Anything)
}

func TestSend_PersistSentFailureKeepsGatewayID(t *testing.T) {
	repo := new(MockMessageRepository)
	gateway := new(MockGateway)
	var logs bytes.Buffer
	d := NewDispatcher(repo, gateway, nil, slog.New(slog.NewJSONHandler(&logs, nil)))
	dbErr := errors.New("database unavailable")

	repo.On("CreateMessage", mock.Anything, mock.Anything).Return(nil).Once()
	gateway.On("SubmitMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(ports.SubmitResult{GatewayMessageID: "ABC123"}, nil).Once()
	repo.On("UpdateMessage", mock.Anything, mock.Anything).Return(dbErr).Once()

	msg, err := d.Send(context.Background(), SendRequest{SenderID: uuid.New(), RecipientNumber: "771234567", Body: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "ABC123")
	assert.Equal(t, "ABC123", msg.GatewayMessageID)
	assert.Contains(t, logs.String(), `"gateway_message_id":"ABC123"`)
	assert.Contains(t, logs.String(), "persist sent failed")
}

func TestSend_RejectsInvalidInput(t *testing.T) {
	f := newDispatchFixture()

	_, err := f.d.Send(context.Background(), SendRequest{SenderID: uuid.New(), RecipientNumber: "12345", Body: "hello"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = f.d.Send(context.Background(), SendRequest{SenderID: uuid.New(), RecipientNumber: "+221771234567", Body: "   "})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	f.repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "SubmitMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_PublishFailureDoesNotFailSend(t *testing.T) {
	repo := new(MockMessageRepository)
	gateway := new(MockGateway)
	events := new(MockEventPublisher)
	d := NewDispatcher(repo, gateway, events, discardLogger())

	repo.On("CreateMessage", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateMessage", mock.Anything, mock.Anything).Return(nil)
	gateway.On("SubmitMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(ports.SubmitResult{GatewayMessageID: "ABC123"}, nil)
	events.On("PublishStatusChanged", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	msg, err := d.Send(context.Background(), SendRequest{SenderID: uuid.New(), RecipientNumber: "771234567", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, msg.Status)
	events.AssertNumberOfCalls(t, "PublishStatusChanged", 1)
}

func TestCheckStatus_NoGatewayIDSkipsGateway(t *testing.T) {
	f := newDispatchFixture()
	msg := domain.NewMessage(uuid.New(), "+221771234567", "hello", nil)
	require.NoError(t, msg.Transition(domain.StatusFailed))
	f.repo.On("GetMessage", mock.Anything, msg.ID).Return(&msg, nil)

	_, err := f.d.CheckStatus(context.Background(), msg.ID)
	assert.ErrorIs(t, err, domain.ErrNoGatewayID)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	f.gateway.AssertNotCalled(t, "FetchDeliveryStatus", mock.Anything, mock.Anything)
}

func TestCheckStatus_NotFound(t *testing.T) {
	f := newDispatchFixture()
	id := uuid.New()
	f.repo.On("GetMessage", mock.Anything, id).Return(nil, domain.ErrMessageNotFound)

	_, err := f.d.CheckStatus(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestCheckStatus_Mapping(t *testing.T) {
	tests := []struct {
		name           string
		from           domain.Status
		deliveryStatus string
		want           domain.Status
		writes         int
	}{
		{"terminal delivery", domain.StatusSent, "DeliveredToTerminal", domain.StatusDelivered, 1},
		{"network delivery", domain.StatusSent, "DeliveredToNetwork", domain.StatusDelivered, 1},
		{"waiting", domain.StatusSent, "MessageWaiting", domain.StatusSending, 1},
		{"impossible", domain.StatusSending, "DeliveryImpossible", domain.StatusFailed, 1},
		{"unknown keeps status", domain.StatusSent, "DeliveryUncertain", domain.StatusSent, 0},
		{"same status no write", domain.StatusSending, "MessageWaiting", domain.StatusSending, 0},
		{"no regression from terminal", domain.StatusDelivered, "MessageWaiting", domain.StatusDelivered, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatchFixture()
			msg := sentMessage(tt.from)
			details := json.RawMessage(`{"deliveryStatus":"` + tt.deliveryStatus + `"}`)

			f.repo.On("GetMessage", mock.Anything, msg.ID).Return(msg, nil)
			f.repo.On("UpdateMessage", mock.Anything, msg).Return(nil).Maybe()
			f.gateway.On("FetchDeliveryStatus", mock.Anything, "ABC123").
				Return(ports.DeliveryInfo{DeliveryStatus: tt.deliveryStatus, Details: details}, nil)

			report, err := f.d.CheckStatus(context.Background(), msg.ID)
			require.NoError(t, err)

			assert.Equal(t, tt.want, report.Status)
			assert.Equal(t, "ABC123", report.GatewayMessageID)
			assert.Equal(t, tt.deliveryStatus, report.DeliveryStatus)
			assert.JSONEq(t, string(details), string(report.Details))
			f.repo.AssertNumberOfCalls(t, "UpdateMessage", tt.writes)
		})
	}
}

func TestCheckStatus_RepeatedPollsWriteOnce(t *testing.T) {
	f := newDispatchFixture()
	msg := sentMessage(domain.StatusSent)

	f.repo.On("GetMessage", mock.Anything, msg.ID).Return(msg, nil)
	f.repo.On("UpdateMessage", mock.Anything, msg).Return(nil)
	f.gateway.On("FetchDeliveryStatus", mock.Anything, "ABC123").
		Return(ports.DeliveryInfo{DeliveryStatus: "DeliveredToTerminal"}, nil)

	first, err := f.d.CheckStatus(context.Background(), msg.ID)
	require.NoError(t, err)
	second, err := f.d.CheckStatus(context.Background(), msg.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	f.repo.AssertNumberOfCalls(t, "UpdateMessage", 1)
	f.gateway.AssertNumberOfCalls(t, "FetchDeliveryStatus", 2)
}

func TestCheckStatus_GatewayErrorIsNotPersisted(t *testing.T) {
	f := newDispatchFixture()
	msg := sentMessage(domain.StatusSent)
	gwErr := domain.NewGatewayError(domain.KindGatewayStatus, "status request failed", 0, "", errors.New("connection refused"))

	f.repo.On("GetMessage", mock.Anything, msg.ID).Return(msg, nil)
	f.gateway.On("FetchDeliveryStatus", mock.Anything, "ABC123").Return(ports.DeliveryInfo{}, gwErr)

	_, err := f.d.CheckStatus(context.Background(), msg.ID)
	assert.Equal(t, domain.KindGatewayStatus, domain.KindOf(err))
	assert.Equal(t, domain.StatusSent, msg.Status)
	f.repo.AssertNotCalled(t, "UpdateMessage", mock.Anything, mock.Anything)
}

func TestSendThenCheckStatus_Scenario(t *testing.T) {
	f := newDispatchFixture()
	var stored *domain.Message

	f.repo.On("CreateMessage", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.Message)
	}).Return(nil)
	f.repo.On("UpdateMessage", mock.Anything, mock.Anything).Return(nil)
	f.gateway.On("SubmitMessage", mock.Anything, "+221771234567", "bonjour").
		Return(ports.SubmitResult{ResourceURL: "https://gw/outbound/tel:+221API/requests/ABC123", GatewayMessageID: "ABC123"}, nil)
	f.gateway.On("FetchDeliveryStatus", mock.Anything, "ABC123").
		Return(ports.DeliveryInfo{DeliveryStatus: "DeliveredToTerminal"}, nil)

	msg, err := f.d.Send(context.Background(), SendRequest{SenderID: uuid.New(), RecipientNumber: "77 123 45 67", Body: "bonjour"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSent, msg.Status)
	assert.Equal(t, "ABC123", msg.GatewayMessageID)
	require.NotNil(t, stored)
	assert.Equal(t, "+221771234567", stored.RecipientNumber)

	f.repo.On("GetMessage", mock.Anything, msg.ID).Return(stored, nil)
	report, err := f.d.CheckStatus(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, report.Status)
}

func TestGet_ForeignMessageIsNotFound(t *testing.T) {
	f := newDispatchFixture()
	msg := sentMessage(domain.StatusSent)
	f.repo.On("GetMessage", mock.Anything, msg.ID).Return(msg, nil)

	_, err := f.d.Get(context.Background(), uuid.New(), msg.ID)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)

	got, err := f.d.Get(context.Background(), msg.SenderID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
}

func TestHistory_ClampsPage(t *testing.T) {
	f := newDispatchFixture()
	sender := uuid.New()
	f.repo.On("ListMessagesBySender", mock.Anything, sender, 0, DefaultLimit).Return([]domain.Message{}, nil).Once()

	_, err := f.d.History(context.Background(), sender, Page{Skip: -3, Limit: 5000})
	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestMapDeliveryStatus(t *testing.T) {
	for in, want := range map[string]domain.Status{
		"DeliveredToTerminal": domain.StatusDelivered,
		"DeliveredToNetwork":  domain.StatusDelivered,
		"MessageWaiting":      domain.StatusSending,
		"DeliveryImpossible":  domain.StatusFailed,
	} {
		got, ok := MapDeliveryStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := MapDeliveryStatus("DeliveryUncertain")
	assert.False(t, ok)
}
