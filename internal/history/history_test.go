package history

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lease-mining-go/internal/models"
)

var base = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

func sampleLog() []models.Transaction {
	return []models.Transaction{
		{Id: "seed", Type: models.TransactionTypeIncome, Amount: decimal.NewFromInt(10), Timestamp: base},
		{Id: "rent", Type: models.TransactionTypeRent, Amount: decimal.NewFromInt(7), Timestamp: base.Add(time.Minute), ServerId: "t3.medium_1"},
		{Id: "inc1", Type: models.TransactionTypeIncome, Amount: decimal.RequireFromString("0.25"), Timestamp: base.Add(2 * time.Minute), ServerId: "t3.medium_1"},
		{Id: "inc2", Type: models.TransactionTypeIncome, Amount: decimal.RequireFromString("0.5"), Timestamp: base.Add(2 * time.Minute), ServerId: "t2.micro_1"},
		{Id: "inc3", Type: models.TransactionTypeIncome, Amount: decimal.RequireFromString("0.25"), Timestamp: base.Add(3 * time.Minute), ServerId: "t3.medium_1"},
	}
}

func ids(txs []models.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Id
	}
	return out
}

func equalIds(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterByType(t *testing.T) {
	log := sampleLog()

	rents := FilterByType(log, models.TransactionTypeRent)
	if !equalIds(ids(rents), []string{"rent"}) {
		t.Errorf("Unexpected RENT filter: %v", ids(rents))
	}

	income := FilterByType(log, models.TransactionTypeIncome)
	if !equalIds(ids(income), []string{"seed", "inc1", "inc2", "inc3"}) {
		t.Errorf("Unexpected INCOME filter: %v", ids(income))
	}

	if got := FilterByType(nil, models.TransactionTypeRent); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}

func TestSortByRecency(t *testing.T) {
	log := sampleLog()
	sorted := SortByRecency(log)

	want := []string{"inc3", "inc2", "inc1", "rent", "seed"}
	if !equalIds(ids(sorted), want) {
		t.Errorf("SortByRecency() = %v, want %v", ids(sorted), want)
	}
	if log[0].Id != "seed" {
		t.Error("SortByRecency mutated its input")
	}
}

func TestSumByType(t *testing.T) {
	log := sampleLog()

	if got := SumByType(log, models.TransactionTypeIncome); !got.Equal(decimal.NewFromInt(11)) {
		t.Errorf("Expected income 11, got %s", got)
	}
	if got := SumByType(log, models.TransactionTypeRent); !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected rent 7, got %s", got)
	}
	if got := SumByType(nil, models.TransactionTypeRent); !got.IsZero() {
		t.Errorf("Expected zero, got %s", got)
	}
}

func TestSummarize(t *testing.T) {
	totals := Summarize(sampleLog())

	if !totals.Net.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected net 4, got %s", totals.Net)
	}
	if totals.Count != 5 {
		t.Errorf("Expected count 5, got %d", totals.Count)
	}
}

func TestPage(t *testing.T) {
	log := sampleLog()

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []string
	}{
		{"first two", 2, 0, []string{"inc3", "inc2"}},
		{"second page", 2, 2, []string{"inc1", "rent"}},
		{"tail", 2, 4, []string{"seed"}},
		{"past end", 2, 10, []string{}},
		{"zero limit defaults", 0, 0, []string{"inc3", "inc2", "inc1", "rent", "seed"}},
		{"oversized limit defaults", 500, 0, []string{"inc3", "inc2", "inc1", "rent", "seed"}},
		{"negative offset", 1, -3, []string{"inc3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Page(log, tt.limit, tt.offset))
			if !equalIds(got, tt.want) {
				t.Errorf("Page(%d, %d) = %v, want %v", tt.limit, tt.offset, got, tt.want)
			}
		})
	}
}

func TestForLease(t *testing.T) {
	got := ForLease(sampleLog(), "t3.medium_1")
	if !equalIds(ids(got), []string{"rent", "inc1", "inc3"}) {
		t.Errorf("Unexpected lease history: %v", ids(got))
	}
	if got := ForLease(sampleLog(), "missing"); len(got) != 0 {
		t.Errorf("Expected no entries, got %v", ids(got))
	}
}
