// Package customs decodifica los campos numéricos de punto fijo de la Declaración de Importação
// (Siscomex). Cada familia tiene su propia escala implícita y su propio redondeo:
//
//	monetario     raw / 10^2   → 2 decimales   ("000000000089364" → 893.64)
//	peso          raw / 10^3   → 3 decimales
//	alícuota      raw / 10^4   → 6 decimales   ("00965" → 0.0965 = 9,65%)
//	cantidad      raw / 10^5   → 5 decimales
//	valor unit.   raw / 10^10  → 8 decimales
//
// El esquema es disperso: un campo ausente o vacío vale cero, nunca es un error.
package customs

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Encoding describe una familia de codificación de punto fijo.
type Encoding struct {
	Name   string
	Scale  int32 // dígitos implícitos (el entero se divide por 10^Scale)
	Places int32 // decimales tras el redondeo
}

// Familias usadas por la DI.
var (
	Monetary  = Encoding{Name: "monetary", Scale: 2, Places: 2}
	Weight    = Encoding{Name: "weight", Scale: 3, Places: 3}
	Rate      = Encoding{Name: "rate", Scale: 4, Places: 6}
	Quantity  = Encoding{Name: "quantity", Scale: 5, Places: 5}
	UnitPrice = Encoding{Name: "unit_price", Scale: 10, Places: 8}
)

// Decode convierte el token codificado en un decimal escalado y redondeado.
// Token vacío, todo ceros o no numérico → cero.
func (e Encoding) Decode(raw string) decimal.Decimal {
	digits, negative, ok := normalize(raw)
	if !ok {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		v = v.Neg()
	}
	return v.Shift(-e.Scale).Round(e.Places)
}

// DecodeInt igual que Decode para un entero ya parseado.
func (e Encoding) DecodeInt(raw int64) decimal.Decimal {
	return decimal.New(raw, -e.Scale).Round(e.Places)
}

// Encode genera el token de punto fijo con ceros a la izquierda hasta width dígitos.
// Si el valor no cabe en width se devuelve completo (nunca se trunca).
func (e Encoding) Encode(v decimal.Decimal, width int) string {
	scaled := v.Round(e.Places).Shift(e.Scale).Round(0)
	sign := ""
	if scaled.IsNegative() {
		sign = "-"
		scaled = scaled.Neg()
	}
	digits := scaled.StringFixed(0)
	if pad := width - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	return sign + digits
}

// Format representa el valor con la precisión de la familia (ej: "0.00", "100.500").
func (e Encoding) Format(v decimal.Decimal) string {
	return v.StringFixed(e.Places)
}

// Date convierte un token YYYYMMDD en YYYY-MM-DD. Cualquier otra longitud (o no dígitos) → "".
func Date(token string) string {
	token = strings.TrimSpace(token)
	if len(token) != 8 || !allDigits(token) {
		return ""
	}
	return token[0:4] + "-" + token[4:6] + "-" + token[6:8]
}

// normalize quita espacios, signo y ceros a la izquierda. ok=false si el token no es un entero.
func normalize(raw string) (digits string, negative bool, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false, false
	}
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" || !allDigits(s) {
		return "", false, false
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0", false, true
	}
	return s, negative, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
