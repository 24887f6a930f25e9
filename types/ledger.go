package types

import "github.com/shopspring/decimal"

// Ledger is a payment breakdown. Remaining is always Total - Cash - Cheque;
// it goes negative on overpayment and that is kept as is.
type Ledger struct {
	Cash      decimal.Decimal `json:"cash"`
	Cheque    decimal.Decimal `json:"cheque"`
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
}

// ComputeLedger builds the breakdown for a sale of total paid partly in cash
// and cheque.
func ComputeLedger(total, cash, cheque decimal.Decimal) Ledger {
	return Ledger{
		Cash:      cash,
		Cheque:    cheque,
		Total:     total,
		Remaining: total.Sub(cash).Sub(cheque),
	}
}

// Add merges two ledgers field by field. The sum of two consistent ledgers
// is consistent.
func (l Ledger) Add(o Ledger) Ledger {
	return Ledger{
		Cash:      l.Cash.Add(o.Cash),
		Cheque:    l.Cheque.Add(o.Cheque),
		Total:     l.Total.Add(o.Total),
		Remaining: l.Remaining.Add(o.Remaining),
	}
}

// Pay records further payments against the same total.
func (l Ledger) Pay(cash, cheque decimal.Decimal) Ledger {
	return ComputeLedger(l.Total, l.Cash.Add(cash), l.Cheque.Add(cheque))
}

// Neg returns the ledger with every field negated, for reversing a merge.
func (l Ledger) Neg() Ledger {
	return Ledger{
		Cash:      l.Cash.Neg(),
		Cheque:    l.Cheque.Neg(),
		Total:     l.Total.Neg(),
		Remaining: l.Remaining.Neg(),
	}
}

// Paid is Cash + Cheque.
func (l Ledger) Paid() decimal.Decimal {
	return l.Cash.Add(l.Cheque)
}

// Settled reports whether nothing remains to be paid.
func (l Ledger) Settled() bool {
	return !l.Remaining.IsPositive()
}

// Consistent reports whether Remaining matches its inputs.
func (l Ledger) Consistent() bool {
	return l.Remaining.Equal(l.Total.Sub(l.Cash).Sub(l.Cheque))
}
