package eventbus

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/exchange/pkg/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleEventBus_PublishReachesSubscribers(t *testing.T) {
	bus := NewSimpleEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var got []string
	bus.Subscribe(events.TypeWithdrawalUpdated, func(ctx context.Context, e events.Event) {
		got = append(got, e.Type())
	})
	bus.Subscribe(events.TypeWithdrawalUpdated, func(ctx context.Context, e events.Event) {
		got = append(got, "second:"+e.Type())
	})

	evt := events.WithdrawalChanged{Kind: events.TypeWithdrawalUpdated, TID: "TIDX", State: "accepted"}
	require.NoError(t, bus.Publish(context.Background(), evt))

	assert.Equal(t, []string{
		events.TypeWithdrawalUpdated,
		"second:" + events.TypeWithdrawalUpdated,
	}, got)
}

func TestSimpleEventBus_NoSubscribersIsNoop(t *testing.T) {
	bus := NewSimpleEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	evt := events.WithdrawalChanged{Kind: events.TypeWithdrawalCreated, TID: "TIDX"}
	assert.NoError(t, bus.Publish(context.Background(), evt))
}

func TestSimpleEventBus_TypeIsolation(t *testing.T) {
	bus := NewSimpleEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))

	created := 0
	bus.Subscribe(events.TypeWithdrawalCreated, func(context.Context, events.Event) { created++ })

	evt := events.WithdrawalChanged{Kind: events.TypeWithdrawalUpdated, TID: "TIDX"}
	require.NoError(t, bus.Publish(context.Background(), evt))
	assert.Zero(t, created)
}
