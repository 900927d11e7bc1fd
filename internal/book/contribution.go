package book

// Contribution signs per kind. The customer side tracks net receivable from
// the customer; the safe side tracks cash on hand.
//
//	kind      customer  safe
//	sales        +       n/a
//	purchase     -       n/a
//	cash_in      -        +
//	cash_out     +        -
//
// Each sign is applied exactly once per affected entity per transaction.

// CustomerSign returns the sign a transaction of kind k applies to the
// referenced customer's balance.
func (k Kind) CustomerSign() int64 {
	switch k {
	case KindSales, KindCashOut:
		return 1
	case KindPurchase, KindCashIn:
		return -1
	}
	return 0
}

// SafeSign returns the sign a transaction of kind k applies to the referenced
// safe's balance. Invoice kinds never touch a safe.
func (k Kind) SafeSign() int64 {
	switch k {
	case KindCashIn:
		return 1
	case KindCashOut:
		return -1
	}
	return 0
}

// CustomerDelta is the signed minor-unit amount added to the customer balance
// for a transaction of kind k with the given magnitude.
func CustomerDelta(k Kind, totalMinor int64) int64 { return k.CustomerSign() * totalMinor }

// SafeDelta is the signed minor-unit amount added to the safe balance for a
// transaction of kind k with the given magnitude. Zero for invoice kinds.
func SafeDelta(k Kind, totalMinor int64) int64 { return k.SafeSign() * totalMinor }
