package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	insider "github.com/RxDataLab/go-insider"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "insider.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEvent(id, filingDate string) insider.InsiderEvent {
	name := "John Robert Smith"
	price := 10.0
	return insider.InsiderEvent{
		ID:                   id,
		Ticker:               "ACME",
		CIK:                  "0001234567",
		FilingDate:           filingDate,
		TransactionDate:      "2025-03-14",
		InsiderName:          &name,
		SharesBought:         500,
		Price:                "$10.00",
		PricePerShare:        &price,
		CashSpent:            5000,
		PercentIncrease:      50,
		SharesOwnedBefore:    1000,
		SharesOwnedFollowing: 1500,
		OwnershipForm:        insider.Direct,
		Source:               "https://www.sec.gov/Archives/edgar/data/1234567/000123456725000001/xslF345X05/doc4.xml",
	}
}

func TestSaveEvents_Upsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sampleEvent("3a65dbd2-714b-53d5-ae3e-d1ab9ff5b299", "2025-03-17")
	require.NoError(t, s.SaveEvents(ctx, []insider.InsiderEvent{first}))
	require.NoError(t, s.SaveEvents(ctx, []insider.InsiderEvent{first}))

	events, err := s.EventsByCIK(ctx, "1234567")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, first, events[0])

	adoption := "2025-02-03"
	first.Is10b51Plan = true
	first.Plan10b51AdoptionDate = &adoption
	require.NoError(t, s.SaveEvents(ctx, []insider.InsiderEvent{first}))

	events, err = s.EventsByCIK(ctx, "0001234567")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Is10b51Plan)
	assert.Equal(t, "2025-02-03", *events[0].Plan10b51AdoptionDate)
}

func TestSaveEvents_NullableFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := sampleEvent("b1", "2025-03-17")
	e.InsiderName = nil
	e.PricePerShare = nil
	e.Price = "$0.00"
	e.OwnershipForm = insider.Indirect
	require.NoError(t, s.SaveEvents(ctx, []insider.InsiderEvent{e}))

	events, err := s.EventsByCIK(ctx, "1234567")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].InsiderName)
	assert.Nil(t, events[0].PricePerShare)
	assert.Nil(t, events[0].Plan10b51AdoptionDate)
	assert.Equal(t, insider.Indirect, events[0].OwnershipForm)
}

func TestEventsByCIK_Order(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEvents(ctx, []insider.InsiderEvent{
		sampleEvent("c", "2025-05-02"),
		sampleEvent("a", "2025-03-17"),
		sampleEvent("b", "2025-03-17"),
	}))

	events, err := s.EventsByCIK(ctx, "1234567")
	require.NoError(t, err)
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	events, err = s.EventsByCIK(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestScanState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	last, err := s.LastScanned(ctx, "1234567")
	require.NoError(t, err)
	assert.Equal(t, "", last)

	require.NoError(t, s.MarkScanned(ctx, "1234567", "2025-04-01"))
	require.NoError(t, s.MarkScanned(ctx, "0001234567", "2025-03-17"))

	last, err = s.LastScanned(ctx, "0001234567")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", last, "scan state never moves backwards")

	require.NoError(t, s.MarkScanned(ctx, "1234567", "2025-05-02"))
	last, err = s.LastScanned(ctx, "1234567")
	require.NoError(t, err)
	assert.Equal(t, "2025-05-02", last)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insider.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.MarkScanned(ctx, "1234567", "2025-04-01"))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	last, err := s.LastScanned(ctx, "1234567")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", last)
}
