package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memPositions struct {
	mu       sync.Mutex
	rows     map[string]domain.Position
	order    []string
	recorded map[string]float64
	listErr  error
}

func newMemPositions(ps ...domain.Position) *memPositions {
	m := &memPositions{rows: map[string]domain.Position{}}
	for _, p := range ps {
		m.rows[p.ID] = p
		m.order = append(m.order, p.ID)
	}
	return m
}

func (m *memPositions) Create(_ context.Context, pos domain.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[pos.ID]; ok {
		return domain.ErrAlreadyExists
	}
	m.rows[pos.ID] = pos
	m.order = append(m.order, pos.ID)
	return nil
}

func (m *memPositions) GetByID(_ context.Context, id string) (domain.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memPositions) List(_ context.Context, f domain.PositionFilter) ([]domain.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []domain.Position{}
	for _, id := range m.order {
		p := m.rows[id]
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Symbol != "" && p.Symbol != f.Symbol {
			continue
		}
		if f.PortfolioID != "" && p.PortfolioID != f.PortfolioID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memPositions) Transition(_ context.Context, id string, status domain.PositionStatus, exit domain.ExitRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Status != domain.PositionStatusActive || status == domain.PositionStatusActive {
		return domain.ErrInvalidTransition
	}
	pnl := (exit.Price - p.EntryPrice) * p.Quantity
	pct := pnl / p.EntryValue() * 100
	p.Status = status
	p.ExitPrice = &exit.Price
	p.ExitTime = &exit.Time
	p.ExitReason = exit.Reason
	p.RealizedPnL = &pnl
	p.RealizedPnLPercent = &pct
	m.rows[id] = p
	return nil
}

func (m *memPositions) UpdateNotes(_ context.Context, id, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Notes = notes
	m.rows[id] = p
	return nil
}

func (m *memPositions) RecordPrices(_ context.Context, prices map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = prices
	for id, p := range m.rows {
		if price, ok := prices[p.Symbol]; ok && p.IsActive() {
			p.LastKnownPrice = &price
			m.rows[id] = p
		}
	}
	return nil
}

type fakePrices struct {
	quotes   map[string]domain.Quote
	profiles map[string]domain.Profile
	err      error
	calls    int
}

func (f *fakePrices) Quotes(context.Context, []string) (map[string]domain.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

func (f *fakePrices) Profiles(context.Context, []string) (map[string]domain.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles, nil
}

func (f *fakePrices) SetQuote(_ context.Context, q domain.Quote) error {
	if f.err != nil {
		return f.err
	}
	if f.quotes == nil {
		f.quotes = map[string]domain.Quote{}
	}
	f.quotes[q.Symbol] = q
	return nil
}

func (f *fakePrices) SetProfile(_ context.Context, p domain.Profile) error {
	if f.profiles == nil {
		f.profiles = map[string]domain.Profile{}
	}
	f.profiles[p.Symbol] = p
	return nil
}

type memCandidates struct {
	rows []domain.Candidate
	err  error
}

func (m *memCandidates) Put(_ context.Context, cs []domain.Candidate) error {
	if m.err != nil {
		return m.err
	}
	m.rows = cs
	return nil
}

func (m *memCandidates) List(context.Context) ([]domain.Candidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

type fakeBus struct {
	mu        sync.Mutex
	published map[string][][]byte
	streams   map[string][][]byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{published: map[string][][]byte{}, streams: map[string][][]byte{}}
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streams[stream] = append(b.streams[stream], payload)
	return nil
}

func (b *fakeBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type fakeLocks struct {
	held     bool
	acquired int
	released int
}

func (l *fakeLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if l.held {
		return nil, domain.ErrLockHeld
	}
	l.acquired++
	return func() { l.released++ }, nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *memAudit) Log(_ context.Context, event string, detail map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, domain.AuditEntry{ID: int64(len(a.entries) + 1), Event: event, Detail: detail})
	return nil
}

func (a *memAudit) List(context.Context, domain.AuditFilter) ([]domain.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AuditEntry(nil), a.entries...), nil
}

func (a *memAudit) events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.entries {
		out = append(out, e.Event)
	}
	return out
}

type fakeArchive struct {
	archived []domain.Brief
	err      error
}

func (a *fakeArchive) Archive(_ context.Context, b domain.Brief, _ string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.archived = append(a.archived, b)
	return "briefs/" + b.GeneratedAt.Format("2006/01/02") + ".json", nil
}

func (a *fakeArchive) Latest(context.Context) (domain.Brief, error) {
	if len(a.archived) == 0 {
		return domain.Brief{}, domain.ErrNotFound
	}
	return a.archived[len(a.archived)-1], nil
}

type fakeNotifier struct {
	briefs   int
	markdown string
	err      error
}

func (n *fakeNotifier) NotifyBrief(_ context.Context, _ domain.Brief, markdown string) error {
	n.briefs++
	n.markdown = markdown
	return n.err
}
