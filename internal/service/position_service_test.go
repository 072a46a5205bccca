package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

var fixedNow = time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC)

func newTestPositionService(ps ...domain.Position) (*PositionService, *memPositions, *fakeBus, *memAudit) {
	store := newMemPositions(ps...)
	bus := newFakeBus()
	aud := &memAudit{}
	svc := NewPositionService(store, bus, aud, discardLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc, store, bus, aud
}

func validOpen() OpenRequest {
	return OpenRequest{
		Symbol:     " eqnr ",
		EntryPrice: 100,
		Quantity:   10,
		Category:   domain.CategoryTrend,
		StopLoss:   90,
		Target:     120,
		HorizonEnd: fixedNow.AddDate(0, 0, 30),
	}
}

func TestPositionService_Open(t *testing.T) {
	svc, store, bus, aud := newTestPositionService()

	pos, err := svc.Open(context.Background(), validOpen())
	require.NoError(t, err)

	assert.NotEmpty(t, pos.ID)
	assert.Equal(t, "EQNR", pos.Symbol)
	assert.Equal(t, domain.PositionStatusActive, pos.Status)
	assert.Equal(t, fixedNow, pos.EntryTime)

	stored, err := store.GetByID(context.Background(), pos.ID)
	require.NoError(t, err)
	assert.Equal(t, pos, stored)

	require.Len(t, bus.published[ChannelPositions], 1)
	require.Len(t, bus.streams[StreamPositions], 1)
	var evt struct {
		Type string          `json:"type"`
		Data domain.Position `json:"data"`
	}
	require.NoError(t, json.Unmarshal(bus.published[ChannelPositions][0], &evt))
	assert.Equal(t, "position_opened", evt.Type)
	assert.Equal(t, pos.ID, evt.Data.ID)

	assert.Equal(t, []string{"position.opened"}, aud.events())
}

func TestPositionService_OpenValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OpenRequest)
	}{
		{"missing symbol", func(r *OpenRequest) { r.Symbol = "  " }},
		{"zero price", func(r *OpenRequest) { r.EntryPrice = 0 }},
		{"negative quantity", func(r *OpenRequest) { r.Quantity = -1 }},
		{"no category", func(r *OpenRequest) { r.Category = "" }},
		{"negative stop", func(r *OpenRequest) { r.StopLoss = -5 }},
		{"horizon before entry", func(r *OpenRequest) { r.HorizonEnd = fixedNow.Add(-time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, bus, _ := newTestPositionService()
			req := validOpen()
			tt.mutate(&req)

			_, err := svc.Open(context.Background(), req)
			require.ErrorIs(t, err, domain.ErrInvalidPosition)
			assert.Empty(t, store.rows)
			assert.Empty(t, bus.published)
		})
	}
}

func TestPositionService_Close(t *testing.T) {
	svc, _, bus, aud := newTestPositionService()
	ctx := context.Background()

	pos, err := svc.Open(ctx, validOpen())
	require.NoError(t, err)

	closed, err := svc.Close(ctx, pos.ID, CloseRequest{Price: 110, Reason: "target"})
	require.NoError(t, err)
	assert.Equal(t, domain.PositionStatusClosed, closed.Status)
	require.NotNil(t, closed.RealizedPnL)
	assert.InDelta(t, 100.0, *closed.RealizedPnL, 1e-9)
	require.NotNil(t, closed.ExitTime)
	assert.Equal(t, fixedNow, *closed.ExitTime)
	assert.Equal(t, "target", closed.ExitReason)

	assert.Equal(t, []string{"position.opened", "position.closed"}, aud.events())
	assert.Len(t, bus.published[ChannelPositions], 2)

	_, err = svc.Close(ctx, pos.ID, CloseRequest{Price: 111})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestPositionService_CloseStopped(t *testing.T) {
	svc, _, _, _ := newTestPositionService()
	ctx := context.Background()

	pos, err := svc.Open(ctx, validOpen())
	require.NoError(t, err)

	stopped, err := svc.Close(ctx, pos.ID, CloseRequest{Price: 89, Stopped: true, Reason: "stop hit"})
	require.NoError(t, err)
	assert.Equal(t, domain.PositionStatusStopped, stopped.Status)
	assert.InDelta(t, -110.0, *stopped.RealizedPnL, 1e-9)
}

func TestPositionService_CloseErrors(t *testing.T) {
	svc, _, _, _ := newTestPositionService()

	_, err := svc.Close(context.Background(), "missing", CloseRequest{Price: 10})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Close(context.Background(), "missing", CloseRequest{Price: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
}

func TestPositionService_UpdateNotes(t *testing.T) {
	svc, store, _, aud := newTestPositionService()
	ctx := context.Background()

	pos, err := svc.Open(ctx, validOpen())
	require.NoError(t, err)
	require.NoError(t, svc.UpdateNotes(ctx, pos.ID, "earnings on thursday"))

	got, err := store.GetByID(ctx, pos.ID)
	require.NoError(t, err)
	assert.Equal(t, "earnings on thursday", got.Notes)
	assert.Equal(t, "position.notes", aud.events()[1])

	assert.ErrorIs(t, svc.UpdateNotes(ctx, "missing", "x"), domain.ErrNotFound)
}

func TestPositionService_List(t *testing.T) {
	active := domain.Position{ID: "a", Symbol: "AAA", Status: domain.PositionStatusActive}
	closed := domain.Position{ID: "b", Symbol: "BBB", Status: domain.PositionStatusClosed}
	svc, _, _, _ := newTestPositionService(active, closed)
	ctx := context.Background()

	all, err := svc.List(ctx, domain.PositionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := svc.List(ctx, domain.PositionFilter{Status: domain.PositionStatusActive})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, "AAA", onlyActive[0].Symbol)

	_, err = svc.List(ctx, domain.PositionFilter{Status: "OPEN"})
	assert.ErrorIs(t, err, domain.ErrInvalidPosition)
}

func TestOpenedOn(t *testing.T) {
	cet := time.FixedZone("CET", 3600)

	positions := []domain.Position{
		{EntryTime: fixedNow.Add(-2 * time.Hour)},
		{EntryTime: fixedNow.Add(-20 * time.Hour)},
		{EntryTime: time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC), Status: domain.PositionStatusClosed},
		{EntryTime: fixedNow.AddDate(0, 0, -3)},
	}
	assert.Equal(t, 2, OpenedOn(positions, fixedNow))
	// 23:30 UTC is already the 11th in CET.
	assert.Equal(t, 1, OpenedOn(positions, fixedNow.In(cet)))
}
