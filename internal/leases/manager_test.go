package leases

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lease-mining-go/internal/ledger"
	"lease-mining-go/internal/metrics"
	"lease-mining-go/internal/models"
	"lease-mining-go/internal/store"
	"lease-mining-go/internal/store/storetest"
)

var testNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func setup(t *testing.T, kv store.KVStore, balance decimal.Decimal) (*ledger.Ledger, *Manager) {
	t.Helper()
	ctx := context.Background()

	l := ledger.New(kv, ledger.WithClock(fixedClock))
	if err := l.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !balance.Equal(ledger.SeedBalance) {
		if err := l.SetBalance(ctx, balance); err != nil {
			t.Fatalf("SetBalance failed: %v", err)
		}
	}
	return l, NewManager(l, WithClock(fixedClock), WithMetrics(metrics.NewCollector("test")))
}

func mediumParams() RentParams {
	return RentParams{
		OfferingId:   "t3.medium",
		Name:         "t3.medium",
		Price:        decimal.NewFromInt(7),
		HourlyIncome: decimal.RequireFromString("0.0097"),
	}
}

func TestRentSucceeds(t *testing.T) {
	l, m := setup(t, store.NewMemoryStore(), decimal.NewFromInt(10))

	server, err := m.Rent(context.Background(), mediumParams())
	if err != nil {
		t.Fatalf("Rent failed: %v", err)
	}

	s := l.Snapshot()
	if !s.Balance.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected balance 3, got %s", s.Balance)
	}
	if len(s.LeasedServers) != 1 || s.LeasedServers[0].Id != server.Id {
		t.Fatalf("Expected the new lease in state, got %+v", s.LeasedServers)
	}
	if server.Id != "t3.medium_1746100800000" {
		t.Errorf("Unexpected lease id %s", server.Id)
	}
	if !server.LeaseStart.Equal(testNow) || !server.LastIncome.Equal(testNow) {
		t.Errorf("Expected lease start at now, got %v", server.LeaseStart)
	}
	if server.OfferingId() != "t3.medium" {
		t.Errorf("Expected offering id t3.medium, got %s", server.OfferingId())
	}

	var rents []models.Transaction
	for _, tx := range s.Transactions {
		if tx.Type == models.TransactionTypeRent {
			rents = append(rents, tx)
		}
	}
	if len(rents) != 1 {
		t.Fatalf("Expected 1 RENT transaction, got %d", len(rents))
	}
	if !rents[0].Amount.Equal(decimal.NewFromInt(7)) || rents[0].ServerId != server.Id || rents[0].Description != "Server rental t3.medium" {
		t.Errorf("Unexpected RENT transaction: %+v", rents[0])
	}
	if err := l.Reconcile(); err != nil {
		t.Errorf("Ledger out of balance after rent: %v", err)
	}
}

func TestRentInsufficientFunds(t *testing.T) {
	l, m := setup(t, store.NewMemoryStore(), decimal.NewFromInt(5))
	before := l.Snapshot()

	ok := m.RentServer(context.Background(), "t3.medium", "t3.medium", decimal.NewFromInt(7), decimal.RequireFromString("0.0097"))
	if ok {
		t.Fatal("Expected rent to be rejected")
	}

	_, err := m.Rent(context.Background(), mediumParams())
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}

	after := l.Snapshot()
	if !after.Balance.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected balance 5, got %s", after.Balance)
	}
	if len(after.LeasedServers) != 0 || len(after.Transactions) != len(before.Transactions) {
		t.Error("Rejected rent changed state")
	}
}

func TestRentExactBalance(t *testing.T) {
	l, m := setup(t, store.NewMemoryStore(), decimal.NewFromInt(7))

	if !m.RentServer(context.Background(), "t3.medium", "t3.medium", decimal.NewFromInt(7), decimal.RequireFromString("0.0097")) {
		t.Fatal("Expected rent with exact balance to succeed")
	}
	if !l.Balance().IsZero() {
		t.Errorf("Expected zero balance, got %s", l.Balance())
	}
}

func TestRentInvalidParams(t *testing.T) {
	l, m := setup(t, store.NewMemoryStore(), decimal.NewFromInt(10))

	p := mediumParams()
	p.Price = decimal.Zero
	if _, err := m.Rent(context.Background(), p); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount, got %v", err)
	}

	p = mediumParams()
	p.OfferingId = ""
	if _, err := m.Rent(context.Background(), p); err == nil {
		t.Error("Expected error for empty offering id")
	}

	if !l.Balance().Equal(decimal.NewFromInt(10)) {
		t.Errorf("Balance changed to %s", l.Balance())
	}
}

func TestRentSameMillisecondGetsUniqueIds(t *testing.T) {
	l, m := setup(t, store.NewMemoryStore(), decimal.NewFromInt(100))
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		server, err := m.Rent(ctx, mediumParams())
		if err != nil {
			t.Fatalf("Rent %d failed: %v", i, err)
		}
		if seen[server.Id] {
			t.Fatalf("Duplicate lease id %s", server.Id)
		}
		seen[server.Id] = true
	}

	servers := l.Snapshot().LeasedServers
	for i := 1; i < len(servers); i++ {
		if !servers[i].LeaseStart.After(servers[i-1].LeaseStart) {
			t.Errorf("Lease stamps not increasing: %v then %v", servers[i-1].LeaseStart, servers[i].LeaseStart)
		}
	}
}

func TestRentAvoidsExistingLeaseIds(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	_, first := setup(t, kv, decimal.NewFromInt(100))
	if _, err := first.Rent(ctx, mediumParams()); err != nil {
		t.Fatalf("Rent failed: %v", err)
	}

	// A fresh manager over the same persisted state starts without stamp history.
	l := ledger.New(kv)
	if err := l.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second := NewManager(l, WithClock(fixedClock))
	server, err := second.Rent(ctx, mediumParams())
	if err != nil {
		t.Fatalf("Rent failed: %v", err)
	}
	if server.Id == "t3.medium_1746100800000" {
		t.Error("Expected a new id distinct from the persisted lease")
	}
	if len(l.Snapshot().LeasedServers) != 2 {
		t.Errorf("Expected 2 leases, got %d", len(l.Snapshot().LeasedServers))
	}
}

func TestRentStorageFailure(t *testing.T) {
	kv := storetest.NewFaultyStore()
	l, m := setup(t, kv, decimal.NewFromInt(10))

	kv.FailNextWrites(1)
	_, err := m.Rent(context.Background(), mediumParams())
	if !errors.Is(err, ledger.ErrStorageFailure) {
		t.Fatalf("Expected ErrStorageFailure, got %v", err)
	}

	s := l.Snapshot()
	if !s.Balance.Equal(decimal.NewFromInt(10)) || len(s.LeasedServers) != 0 || len(s.Transactions) != 1 {
		t.Errorf("Expected no partial mutation, got %+v", s)
	}

	if _, err := m.Rent(context.Background(), mediumParams()); err != nil {
		t.Errorf("Retry failed: %v", err)
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	l, m := setup(t, store.NewMemoryStore(), decimal.NewFromInt(10))
	ctx := context.Background()

	prices := []int64{3, 5, 7, 9, 11, 1, 2, 3}
	for _, price := range prices {
		p := mediumParams()
		p.Price = decimal.NewFromInt(price)
		_, _ = m.Rent(ctx, p)

		if l.Balance().IsNegative() {
			t.Fatalf("Balance went negative: %s", l.Balance())
		}
		if err := l.Reconcile(); err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
	}
}

func TestParamsFromOffering(t *testing.T) {
	o := models.Offering{
		Id:           "c5.large",
		Name:         "c5.large",
		Description:  "compute",
		Price:        decimal.NewFromInt(9),
		StarsPrice:   375,
		HourlyIncome: decimal.RequireFromString("0.0125"),
		ImageUrl:     "/c5.png",
	}
	p := ParamsFromOffering(o)
	if p.OfferingId != o.Id || !p.Price.Equal(o.Price) || p.StarsPrice != 375 || !strings.HasSuffix(p.ImageUrl, "c5.png") {
		t.Errorf("Unexpected params: %+v", p)
	}
}
