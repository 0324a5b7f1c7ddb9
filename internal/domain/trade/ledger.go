package trade

import "github.com/shopspring/decimal"

// QuantityScale is the number of decimal places quantities and prices are
// stored with. Values with more places would be rounded on write.
const QuantityScale = 4

// FitsQuantityScale reports whether d has at most QuantityScale decimal places
func FitsQuantityScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(QuantityScale))
}

// LineState is the fulfillment state of a single purchase order line
type LineState string

const (
	LineStateNone    LineState = "none"
	LineStatePartial LineState = "partial"
	LineStateFull    LineState = "full"
)

// OrderState is the receiving outcome derived from all lines of an order
type OrderState string

const (
	OrderStateReceived  OrderState = "received"
	OrderStatePartial   OrderState = "partial"
	OrderStateUnchanged OrderState = "unchanged"
)

// LineQuantities is the ledger view of one purchase order line
type LineQuantities struct {
	Ordered  decimal.Decimal
	Received decimal.Decimal
}

// Remaining returns max(0, ordered - received)
func Remaining(ordered, received decimal.Decimal) decimal.Decimal {
	remaining := ordered.Sub(received)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// LineStateOf derives the state of one line
func LineStateOf(ordered, received decimal.Decimal) LineState {
	switch {
	case received.GreaterThanOrEqual(ordered):
		return LineStateFull
	case received.IsPositive():
		return LineStatePartial
	default:
		return LineStateNone
	}
}

// IsOverReceived reports a line that has taken in more than was ordered
func IsOverReceived(ordered, received decimal.Decimal) bool {
	return received.GreaterThan(ordered)
}

// OrderStateOf derives the order outcome over every line.
// An order without lines stays unchanged.
func OrderStateOf(lines []LineQuantities) OrderState {
	if len(lines) == 0 {
		return OrderStateUnchanged
	}
	allFull := true
	anyReceived := false
	for _, l := range lines {
		switch LineStateOf(l.Ordered, l.Received) {
		case LineStateFull:
			anyReceived = anyReceived || l.Received.IsPositive()
		case LineStatePartial:
			allFull = false
			anyReceived = true
		default:
			allFull = false
		}
	}
	if allFull {
		return OrderStateReceived
	}
	if anyReceived {
		return OrderStatePartial
	}
	return OrderStateUnchanged
}
