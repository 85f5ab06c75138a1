package entity

import "github.com/shopspring/decimal"

// GoodsLine línea de mercadería dentro de una adición.
type GoodsLine struct {
	ID          int64
	AdditionID  int64
	Sequence    string // numeroSequencialItem
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitValue   decimal.Decimal
}
