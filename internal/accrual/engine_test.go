package accrual

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lease-mining-go/internal/ledger"
	"lease-mining-go/internal/models"
	"lease-mining-go/internal/store"
	"lease-mining-go/internal/store/storetest"
)

var testStart = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func newLedger(t *testing.T, kv store.KVStore) *ledger.Ledger {
	t.Helper()
	l := ledger.New(kv, ledger.WithClock(func() time.Time { return testStart }))
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return l
}

func addServer(t *testing.T, l *ledger.Ledger, id string, hourly string, start time.Time) {
	t.Helper()
	err := l.AddLeasedServer(context.Background(), models.LeasedServer{
		Id:           id,
		Name:         id,
		Price:        decimal.NewFromInt(3),
		HourlyIncome: decimal.RequireFromString(hourly),
		LeaseStart:   start,
		LastIncome:   start,
	})
	if err != nil {
		t.Fatalf("AddLeasedServer failed: %v", err)
	}
}

func incomeTransactions(s models.State) []models.Transaction {
	var out []models.Transaction
	for _, tx := range s.Transactions {
		if tx.Type == models.TransactionTypeIncome && tx.Description != ledger.SeedDescription {
			out = append(out, tx)
		}
	}
	return out
}

func TestIncome(t *testing.T) {
	tests := []struct {
		name     string
		hourly   string
		interval time.Duration
		want     string
	}{
		{"one unit per second", "3600", 5 * time.Second, "5"},
		{"one hour tick", "0.0097", time.Hour, "0.0097"},
		{"half second", "7200", 500 * time.Millisecond, "1"},
		{"micro tier", "0.004166667", 5 * time.Second, "0.0000057870375"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Income(decimal.RequireFromString(tt.hourly), tt.interval)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Income() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStartWithoutServers(t *testing.T) {
	kv := store.NewMemoryStore()
	e := NewEngine(newLedger(t, kv))

	err := e.Start(context.Background())
	if !errors.Is(err, ErrNoLeasedServers) {
		t.Fatalf("Expected ErrNoLeasedServers, got %v", err)
	}
	if e.State() != Stopped {
		t.Errorf("Expected STOPPED, got %s", e.State())
	}

	raw, _, _ := kv.Get(context.Background(), store.KeyIsMining)
	if raw != "false" {
		t.Errorf("Expected mining flag to stay false, got %s", raw)
	}
}

func TestTickCreditsActiveServer(t *testing.T) {
	l := newLedger(t, store.NewMemoryStore())
	addServer(t, l, "t2.micro_1", "3600", testStart)
	e := NewEngine(l, WithInterval(5*time.Second))

	tickAt := testStart.Add(5 * time.Second)
	credited, err := e.Tick(context.Background(), tickAt)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if credited != 1 {
		t.Errorf("Expected 1 credit, got %d", credited)
	}

	s := l.Snapshot()
	if !s.Balance.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected balance 15, got %s", s.Balance)
	}
	income := incomeTransactions(s)
	if len(income) != 1 {
		t.Fatalf("Expected 1 INCOME transaction, got %d", len(income))
	}
	if !income[0].Amount.Equal(decimal.NewFromInt(5)) || income[0].ServerId != "t2.micro_1" {
		t.Errorf("Unexpected INCOME transaction: %+v", income[0])
	}
	if income[0].Description != `Income from server "t2.micro_1"` {
		t.Errorf("Unexpected description %q", income[0].Description)
	}
	if !s.LeasedServers[0].LastIncome.Equal(tickAt) {
		t.Errorf("Expected last income at tick time, got %v", s.LeasedServers[0].LastIncome)
	}
	if !s.LeasedServers[0].LeaseStart.Equal(testStart) {
		t.Error("Lease start changed during accrual")
	}
	if err := l.Reconcile(); err != nil {
		t.Errorf("Reconcile failed: %v", err)
	}
}

func TestTickSkipsExpiredServer(t *testing.T) {
	l := newLedger(t, store.NewMemoryStore())
	addServer(t, l, "t2.micro_1", "3600", testStart.Add(-31*24*time.Hour))
	e := NewEngine(l)

	credited, err := e.Tick(context.Background(), testStart)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if credited != 0 {
		t.Errorf("Expected no credit, got %d", credited)
	}

	s := l.Snapshot()
	if !s.Balance.Equal(ledger.SeedBalance) || len(incomeTransactions(s)) != 0 {
		t.Errorf("Expected no change, got balance %s", s.Balance)
	}
	if len(s.LeasedServers) != 1 {
		t.Error("Expired lease should stay in the leased set")
	}
}

func TestTickOneTransactionPerServer(t *testing.T) {
	l := newLedger(t, store.NewMemoryStore())
	addServer(t, l, "a_1", "3600", testStart)
	addServer(t, l, "b_1", "7200", testStart)
	addServer(t, l, "c_1", "3600", testStart.Add(-40*24*time.Hour))
	e := NewEngine(l, WithInterval(time.Second))

	credited, err := e.Tick(context.Background(), testStart.Add(time.Second))
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if credited != 2 {
		t.Errorf("Expected 2 credits, got %d", credited)
	}

	s := l.Snapshot()
	if got := len(incomeTransactions(s)); got != 2 {
		t.Errorf("Expected 2 INCOME transactions, got %d", got)
	}
	if !s.Balance.Equal(decimal.NewFromInt(13)) {
		t.Errorf("Expected balance 13, got %s", s.Balance)
	}
}

func TestTickRetriesFailedCredit(t *testing.T) {
	kv := storetest.NewFaultyStore()
	l := newLedger(t, kv)
	addServer(t, l, "t2.micro_1", "3600", testStart)
	e := NewEngine(l, WithInterval(5*time.Second))
	ctx := context.Background()

	kv.FailNextWrites(1)
	credited, err := e.Tick(ctx, testStart.Add(5*time.Second))
	if !errors.Is(err, ledger.ErrStorageFailure) {
		t.Fatalf("Expected ErrStorageFailure, got %v", err)
	}
	if credited != 0 {
		t.Errorf("Expected no credit, got %d", credited)
	}
	if !l.Balance().Equal(ledger.SeedBalance) {
		t.Errorf("Expected unchanged balance, got %s", l.Balance())
	}
	if owed := e.Pending()["t2.micro_1"]; !owed.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected 5 pending, got %s", owed)
	}

	credited, err = e.Tick(ctx, testStart.Add(10*time.Second))
	if err != nil {
		t.Fatalf("Retry tick failed: %v", err)
	}
	if credited != 1 {
		t.Errorf("Expected 1 credit, got %d", credited)
	}

	s := l.Snapshot()
	income := incomeTransactions(s)
	if len(income) != 1 || !income[0].Amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected one combined credit of 10, got %+v", income)
	}
	if !s.Balance.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected balance 20, got %s", s.Balance)
	}
	if len(e.Pending()) != 0 {
		t.Error("Expected pending credits cleared")
	}
}

func TestTickCommitsPendingAfterExpiry(t *testing.T) {
	kv := storetest.NewFaultyStore()
	l := newLedger(t, kv)
	start := testStart.Add(-30*24*time.Hour + 5*time.Second)
	addServer(t, l, "t2.micro_1", "3600", start)
	e := NewEngine(l, WithInterval(5*time.Second))
	ctx := context.Background()

	kv.FailNextWrites(1)
	_, _ = e.Tick(ctx, testStart)

	credited, err := e.Tick(ctx, testStart.Add(10*time.Second))
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if credited != 1 {
		t.Fatalf("Expected pending credit committed, got %d", credited)
	}
	if !l.Balance().Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected balance 15, got %s", l.Balance())
	}
}

func TestClearPendingAndOrphans(t *testing.T) {
	kv := storetest.NewFaultyStore()
	l := newLedger(t, kv)
	addServer(t, l, "t2.micro_1", "3600", testStart)
	e := NewEngine(l)
	ctx := context.Background()

	kv.FailNextWrites(1)
	_, _ = e.Tick(ctx, testStart.Add(time.Second))
	if len(e.Pending()) != 1 {
		t.Fatal("Expected one pending credit")
	}

	if err := l.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := e.Tick(ctx, testStart.Add(2*time.Second)); err != nil {
		t.Errorf("Tick after reset failed: %v", err)
	}
	if len(e.Pending()) != 0 {
		t.Error("Expected orphaned pending credit dropped")
	}

	e.pending["x"] = decimal.NewFromInt(1)
	e.ClearPending()
	if len(e.Pending()) != 0 {
		t.Error("Expected ClearPending to empty pending credits")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestStartStop(t *testing.T) {
	kv := store.NewMemoryStore()
	l := newLedger(t, kv)
	addServer(t, l, "t2.micro_1", "3600", time.Now().UTC())
	e := NewEngine(l, WithInterval(10*time.Millisecond))
	ctx := context.Background()

	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if e.State() != Running {
		t.Fatalf("Expected RUNNING, got %s", e.State())
	}
	if err := e.Start(ctx); err != nil {
		t.Errorf("Second Start should be a no-op, got %v", err)
	}
	raw, _, _ := kv.Get(ctx, store.KeyIsMining)
	if raw != "true" {
		t.Errorf("Expected mining flag persisted, got %s", raw)
	}

	waitFor(t, 2*time.Second, func() bool {
		return l.Balance().GreaterThan(ledger.SeedBalance)
	})

	if err := e.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if e.State() != Stopped {
		t.Errorf("Expected STOPPED, got %s", e.State())
	}

	count := len(l.Snapshot().Transactions)
	time.Sleep(50 * time.Millisecond)
	if got := len(l.Snapshot().Transactions); got != count {
		t.Errorf("Tick fired after Stop: %d -> %d transactions", count, got)
	}

	raw, _, _ = kv.Get(ctx, store.KeyIsMining)
	if raw != "false" {
		t.Errorf("Expected mining flag cleared, got %s", raw)
	}
	if err := l.Reconcile(); err != nil {
		t.Errorf("Reconcile failed: %v", err)
	}
}

func TestConcurrentStartLaunchesOneLoop(t *testing.T) {
	kv := storetest.NewFaultyStore()
	l := newLedger(t, kv)
	addServer(t, l, "t2.micro_1", "3600", time.Now().UTC())
	e := NewEngine(l, WithInterval(time.Hour))
	ctx := context.Background()
	writes := kv.Writes()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Start(ctx); err != nil {
				t.Errorf("Start failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := kv.Writes() - writes; got != 1 {
		t.Errorf("Expected one mining flag write, got %d", got)
	}

	if err := e.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	e.Wait()
	if e.State() != Stopped {
		t.Errorf("Expected STOPPED, got %s", e.State())
	}
}

func TestContextCancelKeepsMiningFlag(t *testing.T) {
	kv := store.NewMemoryStore()
	l := newLedger(t, kv)
	addServer(t, l, "t2.micro_1", "3600", time.Now().UTC())
	e := NewEngine(l, WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	if err := e.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()
	e.Wait()

	if e.State() != Stopped {
		t.Errorf("Expected STOPPED after cancellation, got %s", e.State())
	}

	raw, _, _ := kv.Get(context.Background(), store.KeyIsMining)
	if raw != "true" {
		t.Errorf("Expected mining flag kept for resume, got %s", raw)
	}
}

func TestResume(t *testing.T) {
	ctx := context.Background()

	t.Run("not mining", func(t *testing.T) {
		e := NewEngine(newLedger(t, store.NewMemoryStore()))
		resumed, err := e.Resume(ctx)
		if err != nil || resumed {
			t.Errorf("Expected no resume, got %v, %v", resumed, err)
		}
	})

	t.Run("stale flag", func(t *testing.T) {
		kv := store.NewMemoryStore()
		l := newLedger(t, kv)
		if err := l.SetMining(ctx, true); err != nil {
			t.Fatalf("SetMining failed: %v", err)
		}
		e := NewEngine(l)
		resumed, err := e.Resume(ctx)
		if err != nil || resumed {
			t.Errorf("Expected no resume, got %v, %v", resumed, err)
		}
		if l.Snapshot().Mining {
			t.Error("Expected stale mining flag cleared")
		}
	})

	t.Run("resumes", func(t *testing.T) {
		l := newLedger(t, store.NewMemoryStore())
		addServer(t, l, "t2.micro_1", "3600", testStart)
		if err := l.SetMining(ctx, true); err != nil {
			t.Fatalf("SetMining failed: %v", err)
		}
		e := NewEngine(l, WithInterval(time.Hour))
		resumed, err := e.Resume(ctx)
		if err != nil || !resumed {
			t.Fatalf("Expected resume, got %v, %v", resumed, err)
		}
		if !e.Running() {
			t.Error("Expected engine running")
		}
		if !l.Balance().Equal(ledger.SeedBalance) {
			t.Error("Resume must not back-fill offline income")
		}
		_ = e.Stop(ctx)
	})
}
