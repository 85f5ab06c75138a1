package entity

import "github.com/shopspring/decimal"

// MismatchKind tipo de divergencia entre el grafo declarado y el teórico.
type MismatchKind string

const (
	MismatchAmount             MismatchKind = "AMOUNT_MISMATCH"     // Diferencia de monto sobre el umbral
	MismatchMissingTheoretical MismatchKind = "MISSING_THEORETICAL" // Adición solo en el grafo declarado
	MismatchMissingDeclared    MismatchKind = "MISSING_DECLARED"    // Adición solo en el grafo teórico
)

// Mismatch divergencia material de un tributo (o de una adición completa).
// Para MISSING_* TaxKind viene vacío y los montos en cero.
type Mismatch struct {
	Kind           MismatchKind
	AdditionNumber string
	TaxKind        TaxKind
	Declared       decimal.Decimal
	Theoretical    decimal.Decimal
	Delta          decimal.Decimal // Declared - Theoretical
	DeltaPct       decimal.Decimal // |Delta| / Declared * 100
}
