package types_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/types"
)

func TestComputeLedger(t *testing.T) {
	tests := []struct {
		name                string
		total, cash, cheque int64
		remaining           int64
	}{
		{"fully paid", 500000, 300000, 200000, 0},
		{"partly paid", 500000, 100000, 0, 400000},
		{"nothing paid", 250000, 0, 0, 250000},
		{"overpaid", 100000, 80000, 50000, -30000},
		{"zero total", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := types.ComputeLedger(types.Rupees(tt.total), types.Rupees(tt.cash), types.Rupees(tt.cheque))
			if !l.Remaining.Equal(types.Rupees(tt.remaining)) {
				t.Errorf("remaining: got %s, want %d", l.Remaining, tt.remaining)
			}
			if !l.Consistent() {
				t.Errorf("ledger %+v is inconsistent", l)
			}
		})
	}
}

func TestLedgerFractionalAmounts(t *testing.T) {
	l := types.ComputeLedger(
		decimal.RequireFromString("1000.10"),
		decimal.RequireFromString("0.05"),
		decimal.RequireFromString("0.05"),
	)
	if !l.Remaining.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("remaining: got %s", l.Remaining)
	}
}

func TestLedgerAddKeepsInvariant(t *testing.T) {
	a := types.ComputeLedger(types.Rupees(500000), types.Rupees(300000), types.Rupees(200000))
	b := types.ComputeLedger(types.Rupees(400000), types.Rupees(50000), types.Rupees(0))

	sum := a.Add(b)
	if !sum.Consistent() {
		t.Fatalf("sum %+v is inconsistent", sum)
	}
	if !sum.Total.Equal(types.Rupees(900000)) || !sum.Remaining.Equal(types.Rupees(350000)) {
		t.Errorf("unexpected sum %+v", sum)
	}

	back := sum.Add(b.Neg())
	if !back.Total.Equal(a.Total) || !back.Remaining.Equal(a.Remaining) {
		t.Errorf("reversing the merge: got %+v, want %+v", back, a)
	}
}

func TestLedgerPay(t *testing.T) {
	l := types.ComputeLedger(types.Rupees(500000), types.Rupees(100000), types.Rupees(0))

	l = l.Pay(types.Rupees(150000), types.Rupees(50000))
	if l.Settled() {
		t.Fatal("ledger should not be settled yet")
	}
	if !l.Remaining.Equal(types.Rupees(200000)) {
		t.Errorf("remaining: got %s", l.Remaining)
	}

	l = l.Pay(types.Rupees(0), types.Rupees(200000))
	if !l.Settled() {
		t.Errorf("ledger should be settled, remaining %s", l.Remaining)
	}
	if !l.Paid().Equal(types.Rupees(500000)) {
		t.Errorf("paid: got %s", l.Paid())
	}
}

func TestLedgerJSON(t *testing.T) {
	l := types.ComputeLedger(types.Rupees(500000), types.Rupees(300000), types.Rupees(200000))
	data, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"cash":300000,"cheque":200000,"total":500000,"remaining":0}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var decoded types.Ledger
	if err := json.Unmarshal([]byte(`{"cash":"300000","cheque":200000,"total":500000,"remaining":0}`), &decoded); err != nil {
		t.Fatal(err)
	}
	if !decoded.Cash.Equal(types.Rupees(300000)) {
		t.Errorf("cash: got %s", decoded.Cash)
	}
}
