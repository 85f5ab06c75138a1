// Package taxengine adaptador HTTP del motor externo de cálculo de tributos teóricos.
//
// Protocolo: POST {baseURL}/v1/theoretical con la DI declarada en JSON; la respuesta trae
// el mismo esquema con los montos recalculados por adición.
package taxengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Aduana-api/internal/application/reconciliation"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
)

const (
	theoreticalPath  = "/v1/theoretical"
	maxResponseBytes = 4 << 20
)

// ── Estructuras de intercambio ────────────────────────────────────────────────

type declarationPayload struct {
	Number    string            `json:"numeroDI"`
	Date      string            `json:"dataRegistro,omitempty"`
	Additions []additionPayload `json:"adicoes"`
}

type additionPayload struct {
	Number      string          `json:"numeroAdicao"`
	TariffCode  string          `json:"ncm,omitempty"`
	Incoterm    string          `json:"incoterm,omitempty"`
	ValueSource decimal.Decimal `json:"valorMoeda"`
	ValueLocal  decimal.Decimal `json:"valorReais"`
	NetWeight   decimal.Decimal `json:"pesoLiquido"`
	Taxes       []taxPayload    `json:"tributos"`
}

type taxPayload struct {
	Kind   entity.TaxKind      `json:"tipo"`
	Amount decimal.Decimal     `json:"valor"`
	Base   decimal.NullDecimal `json:"base"`
	Rate   decimal.Decimal     `json:"aliquota"`
}

// ── Cliente ───────────────────────────────────────────────────────────────────

// Client implementa reconciliation.TaxEngine sobre HTTP/JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ reconciliation.TaxEngine = (*Client)(nil)

// NewClient construye el cliente. timeout <= 0 usa 15 s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Theoretical envía la DI declarada y devuelve el grafo teórico.
func (c *Client) Theoretical(ctx context.Context, declared *entity.Declaration) (*entity.Declaration, error) {
	payload, err := json.Marshal(toPayload(declared))
	if err != nil {
		return nil, fmt.Errorf("taxengine: serializar DI: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+theoreticalPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("taxengine: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("taxengine: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("taxengine: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("taxengine: leer respuesta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("taxengine: HTTP %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(raw)), 200))
	}

	var out declarationPayload
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("taxengine: respuesta inválida: %w", err)
	}
	if out.Number != "" && out.Number != declared.Number {
		return nil, fmt.Errorf("taxengine: respuesta para DI %s, se pidió %s", out.Number, declared.Number)
	}
	return fromPayload(declared.Number, out)
}

func toPayload(d *entity.Declaration) declarationPayload {
	p := declarationPayload{Number: d.Number, Date: d.RegistrationDate, Additions: make([]additionPayload, 0, len(d.Additions))}
	for _, a := range d.Additions {
		ap := additionPayload{
			Number:      a.Number,
			TariffCode:  a.TariffCode,
			Incoterm:    a.Incoterm,
			ValueSource: a.ValueSource,
			ValueLocal:  a.ValueLocal,
			NetWeight:   a.NetWeight,
		}
		for _, kind := range entity.TaxKinds {
			if t := a.Tax(kind); t != nil {
				ap.Taxes = append(ap.Taxes, taxPayload{Kind: kind, Amount: t.Amount, Base: t.Base, Rate: t.Rate})
			}
		}
		p.Additions = append(p.Additions, ap)
	}
	return p
}

func fromPayload(number string, p declarationPayload) (*entity.Declaration, error) {
	d := &entity.Declaration{Number: number, RegistrationDate: p.Date}
	for _, ap := range p.Additions {
		a := &entity.Addition{
			DeclarationNumber: number,
			Number:            ap.Number,
			TariffCode:        ap.TariffCode,
			Incoterm:          ap.Incoterm,
			ValueSource:       ap.ValueSource,
			ValueLocal:        ap.ValueLocal,
			NetWeight:         ap.NetWeight,
			Taxes:             make(map[entity.TaxKind]*entity.Tax, len(ap.Taxes)),
		}
		for _, tp := range ap.Taxes {
			if !tp.Kind.Valid() {
				return nil, fmt.Errorf("taxengine: tributo desconocido %q en adición %s", tp.Kind, ap.Number)
			}
			a.Taxes[tp.Kind] = &entity.Tax{Kind: tp.Kind, Amount: tp.Amount, Base: tp.Base, Rate: tp.Rate}
		}
		d.Additions = append(d.Additions, a)
	}
	d.RecomputeTotals()
	return d, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
