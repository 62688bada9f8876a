package domain

import (
	"github.com/shopspring/decimal"
)

// Signal tells the user which way a balance points.
type Signal int

const (
	SignalNone Signal = iota
	SignalBuy
	SignalSell
)

// signal string constants to avoid magic strings
const (
	signalStringNone = "none"
	signalStringBuy  = "buy"
	signalStringSell = "sell"
)

// SignalFor maps a balance to its signal: positive means buy, negative
// means sell, exactly zero shows nothing.
func SignalFor(balance decimal.Decimal) Signal {
	switch {
	case balance.IsPositive():
		return SignalBuy
	case balance.IsNegative():
		return SignalSell
	default:
		return SignalNone
	}
}

// String returns the string representation of the signal
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return signalStringBuy
	case SignalSell:
		return signalStringSell
	default:
		return signalStringNone
	}
}
