package interop_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FinTechTonic/creditnexus/internal/common"
	"github.com/FinTechTonic/creditnexus/internal/interop"
)

// fakeBus fails on demand and records every broadcast.
type fakeBus struct {
	listenErr    error
	broadcastErr error
	broadcasts   []json.RawMessage
	removed      int
}

func (f *fakeBus) AddContextListener(_ context.Context, _ string, _ interop.ContextHandler) (func(), error) {
	if f.listenErr != nil {
		return nil, f.listenErr
	}
	return func() { f.removed++ }, nil
}

func (f *fakeBus) Broadcast(_ context.Context, payload json.RawMessage) error {
	if f.broadcastErr != nil {
		return f.broadcastErr
	}
	f.broadcasts = append(f.broadcasts, payload)
	return nil
}

func validContext() *interop.LoanContext {
	return &interop.LoanContext{
		Type: interop.ContextTypeLoan,
		Loan: &interop.LoanDetails{
			AgreementDate: "2023-10-15",
			Parties:       []interop.LoanParty{{Name: "ACME INDUSTRIES INC.", Role: "Borrower"}},
			Facilities:    []interop.LoanFacility{{Name: "Term Loan Facility", Amount: json.Number("500000000"), Currency: "USD"}},
		},
	}
}

func TestAdapter_CapabilityProbe(t *testing.T) {
	assert.False(t, interop.NewAdapter(nil, interop.Config{}, nil).Capable())
	assert.True(t, interop.NewAdapter(&fakeBus{}, interop.Config{}, nil).Capable())
}

func TestAdapter_PublishMockMode(t *testing.T) {
	adapter := interop.NewAdapter(nil, interop.Config{}, nil)

	// Mock mode always resolves successfully; there is no transport to fail.
	require.NoError(t, adapter.Publish(context.Background(), validContext()))
}

func TestAdapter_PublishValidatesBeforeTransport(t *testing.T) {
	bus := &fakeBus{}
	adapter := interop.NewAdapter(bus, interop.Config{}, nil)

	tests := []struct {
		name    string
		payload *interop.LoanContext
	}{
		{name: "wrong discriminant", payload: &interop.LoanContext{Type: "interop.trade", Loan: validContext().Loan}},
		{name: "missing loan body", payload: &interop.LoanContext{Type: interop.ContextTypeLoan}},
		{
			name: "facility without amount currency",
			payload: &interop.LoanContext{
				Type: interop.ContextTypeLoan,
				Loan: &interop.LoanDetails{
					AgreementDate: "2023-10-15",
					Parties:       []interop.LoanParty{},
					Facilities:    []interop.LoanFacility{{Name: "Term Loan Facility", Amount: json.Number("1"), Currency: "pounds"}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := adapter.Publish(context.Background(), tt.payload)
			require.ErrorIs(t, err, common.ErrValidationFailed)
			assert.Empty(t, bus.broadcasts, "invalid payload must never reach the bus")
		})
	}
}

func TestAdapter_PublishRejectedSurfaces(t *testing.T) {
	bus := &fakeBus{broadcastErr: errors.New("bus unavailable")}
	adapter := interop.NewAdapter(bus, interop.Config{}, nil)

	err := adapter.Publish(context.Background(), validContext())
	require.ErrorIs(t, err, common.ErrPublishRejected)
}

func TestAdapter_PublishForwardsToBus(t *testing.T) {
	bus := &fakeBus{}
	adapter := interop.NewAdapter(bus, interop.Config{}, nil)

	require.NoError(t, adapter.Publish(context.Background(), validContext()))
	require.Len(t, bus.broadcasts, 1)

	var head struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(bus.broadcasts[0], &head))
	assert.Equal(t, interop.ContextTypeLoan, head.Type)
}

func TestAdapter_SubscribeMockModeIsInert(t *testing.T) {
	adapter := interop.NewAdapter(nil, interop.Config{}, nil)

	sub, err := adapter.Subscribe(context.Background(), interop.ContextTypeLoan, func(json.RawMessage) {
		t.Fatal("inert handle must never invoke the handler")
	})
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, sub.Inert())
	assert.False(t, sub.Active())

	// Releasing an inert handle is a no-op.
	sub.Release()
	adapter.Unsubscribe(sub)
}

func TestAdapter_SubscribeFailed(t *testing.T) {
	bus := &fakeBus{listenErr: errors.New("registration refused")}
	adapter := interop.NewAdapter(bus, interop.Config{}, nil)

	sub, err := adapter.Subscribe(context.Background(), interop.ContextTypeLoan, func(json.RawMessage) {})
	require.ErrorIs(t, err, common.ErrSubscriptionFailed)
	assert.Nil(t, sub)
}

func TestAdapter_SubscriptionLifecycleOverLoopback(t *testing.T) {
	bus := interop.NewLoopbackBus()
	adapter := interop.NewAdapter(bus, interop.Config{}, nil)

	var received []json.RawMessage
	sub, err := adapter.Subscribe(context.Background(), interop.ContextTypeLoan, func(p json.RawMessage) {
		received = append(received, p)
	})
	require.NoError(t, err)
	assert.True(t, sub.Active())

	require.NoError(t, adapter.Publish(context.Background(), validContext()))
	require.Len(t, received, 1)

	sub.Release()
	assert.False(t, sub.Active())

	// A stale handle receives no further callbacks, and releasing again is a no-op.
	require.NoError(t, adapter.Publish(context.Background(), validContext()))
	assert.Len(t, received, 1)
	sub.Release()
	adapter.Unsubscribe(sub)
}

func TestAdapter_CloseReleasesSubscriptions(t *testing.T) {
	bus := &fakeBus{}
	adapter := interop.NewAdapter(bus, interop.Config{}, nil)

	_, err := adapter.Subscribe(context.Background(), interop.ContextTypeLoan, func(json.RawMessage) {})
	require.NoError(t, err)
	_, err = adapter.Subscribe(context.Background(), "interop.instrument", func(json.RawMessage) {})
	require.NoError(t, err)

	adapter.Close()
	assert.Equal(t, 2, bus.removed)

	// Idempotent.
	adapter.Close()
	assert.Equal(t, 2, bus.removed)
}
