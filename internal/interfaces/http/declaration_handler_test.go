package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/application/reconciliation"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	domainrecon "github.com/jhoicas/Aduana-api/internal/domain/reconciliation"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/memory"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/siscomex"
	apphttp "github.com/jhoicas/Aduana-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testDI = "2412345678"

// engineFunc adapta una función al puerto TaxEngine.
type engineFunc func(ctx context.Context, declared *entity.Declaration) (*entity.Declaration, error)

func (f engineFunc) Theoretical(ctx context.Context, declared *entity.Declaration) (*entity.Declaration, error) {
	return f(ctx, declared)
}

// document DI con una adición por monto de II (centavos, 15 dígitos).
func document(number string, iiCents ...int) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "<ListaDeclaracoes><declaracaoImportacao><numeroDI>%s</numeroDI><dataRegistro>20240115</dataRegistro>", number)
	for i, cents := range iiCents {
		fmt.Fprintf(&b, `<adicao><numeroAdicao>%03d</numeroAdicao><condicaoVendaIncoterm>FOB</condicaoVendaIncoterm>
<localEmbarqueValorMoeda>000000000100000</localEmbarqueValorMoeda><localEmbarqueValorReais>000000000500000</localEmbarqueValorReais>
<iiAliquotaValorDevido>%015d</iiAliquotaValorDevido><iiBaseCalculo>000000000500000</iiBaseCalculo><iiAliquotaAdValorem>01600</iiAliquotaAdValorem>
<mercadoria><numeroSequencialItem>01</numeroSequencialItem><descricaoMercadoria>ITEM</descricaoMercadoria><quantidade>00000000100000</quantidade><valorUnitario>00000000010000000000</valorUnitario></mercadoria>
</adicao>`, i+1, cents)
	}
	b.WriteString("</declaracaoImportacao></ListaDeclaracoes>")
	return []byte(b.String())
}

func buildTestApp(t *testing.T, engine reconciliation.TaxEngine) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	extractor := siscomex.NewExtractor(siscomex.DefaultOptions())
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	importUC := ingest.NewImportUseCase(
		extractor,
		ingest.NewUpserter(store),
		ingest.NewRegistrar(memory.NewProcessedDocumentStore()),
		m, nil,
		ingest.ImportOptions{MaxDocumentBytes: 64 << 10},
	)
	reconUC := reconciliation.NewUseCase(
		domainrecon.NewAnalyzer(domainrecon.DefaultThresholdPct),
		store.Repository(),
		engine,
		pdf.NewMarotoReportGenerator(),
		m,
	)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ImportUC:  importUC,
		QueryUC:   ingest.NewQueryUseCase(store.Repository()),
		ReconUC:   reconUC,
		Extractor: extractor,
		Gatherer:  reg,
	})
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func post(t *testing.T, app *fiber.App, url string, body []byte) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/xml")
	resp, raw := do(t, app, req)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func get(t *testing.T, app *fiber.App, url string) (*http.Response, []byte) {
	t.Helper()
	return do(t, app, httptest.NewRequest(http.MethodGet, url, nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Importación
// ──────────────────────────────────────────────────────────────────────────────

func TestImport_CuerpoCrudo(t *testing.T) {
	app := buildTestApp(t, nil)

	resp, body := post(t, app, "/api/declarations", document(testDI, 80000, 40000))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, testDI, body["numero_di"])
	assert.EqualValues(t, 2, body["adicoes"])
	assert.Equal(t, "10000.00", body["valor_total_reais"])
	assert.Len(t, body["sha256"], 64)
}

func TestImport_DuplicadoYForce(t *testing.T) {
	app := buildTestApp(t, nil)
	doc := document(testDI, 80000)

	resp, first := post(t, app, "/api/declarations", doc)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := post(t, app, "/api/declarations", doc)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", body["code"])
	assert.Equal(t, first["registro_id"], body["registro_previo"])

	resp, _ = post(t, app, "/api/declarations?force=true", doc)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, raw := get(t, app, "/api/declarations/"+testDI+"/history")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(raw, &history))
	assert.Len(t, history, 2)
}

func TestImport_Multipart(t *testing.T) {
	app := buildTestApp(t, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "DI_2412345678.xml")
	require.NoError(t, err)
	_, err = part.Write(document(testDI, 80000))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/declarations", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, _ := do(t, app, req)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	_, raw := get(t, app, "/api/declarations/"+testDI+"/history")
	var history []map[string]any
	require.NoError(t, json.Unmarshal(raw, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "DI_2412345678.xml", history[0]["arquivo"])
	assert.Equal(t, entity.ProcessingCompleted, history[0]["status"])
}

func TestImport_Errores(t *testing.T) {
	app := buildTestApp(t, nil)

	cases := []struct {
		name   string
		body   []byte
		status int
		code   string
	}{
		{"malformado", []byte("<declaracaoImportacao><numeroDI>1</numeroDI>"), fiber.StatusUnprocessableEntity, "DOCUMENT_SYNTAX"},
		{"sin declaración", []byte("<ListaDeclaracoes/>"), fiber.StatusUnprocessableEntity, "STRUCTURE_MISMATCH"},
		{"vacío", nil, fiber.StatusBadRequest, "VALIDATION"},
		{"demasiado grande", bytes.Repeat([]byte(" "), 65<<10), fiber.StatusRequestEntityTooLarge, "TOO_LARGE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := post(t, app, "/api/declarations", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, body["code"])
		})
	}

	resp, body := post(t, app, "/api/declarations", []byte("<a><b></a>"))
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.NotEmpty(t, body["problemas"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Consulta
// ──────────────────────────────────────────────────────────────────────────────

func TestGetByNumber(t *testing.T) {
	app := buildTestApp(t, nil)
	resp, _ := post(t, app, "/api/declarations", document(testDI, 80000))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, raw := get(t, app, "/api/declarations/"+testDI)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var d struct {
		Number    string `json:"numero_di"`
		Date      string `json:"data_registro"`
		Additions []struct {
			Number string `json:"numero_adicao"`
			Taxes  []struct {
				Kind   string  `json:"tipo"`
				Amount string  `json:"valor_devido"`
				Base   *string `json:"base_calculo"`
				Rate   string  `json:"aliquota"`
			} `json:"tributos"`
			Goods []map[string]any `json:"mercadorias"`
		} `json:"adicoes"`
	}
	require.NoError(t, json.Unmarshal(raw, &d))
	assert.Equal(t, testDI, d.Number)
	assert.Equal(t, "2024-01-15", d.Date)
	require.Len(t, d.Additions, 1)
	taxes := d.Additions[0].Taxes
	require.Len(t, taxes, 4)
	assert.Equal(t, "II", taxes[0].Kind)
	assert.Equal(t, "800.00", taxes[0].Amount)
	assert.Equal(t, "0.160000", taxes[0].Rate)
	require.NotNil(t, taxes[0].Base)
	assert.Equal(t, "5000.00", *taxes[0].Base)
	assert.Equal(t, "IPI", taxes[1].Kind)
	assert.Equal(t, "0.00", taxes[1].Amount)
	assert.Nil(t, taxes[1].Base)
	assert.Len(t, d.Additions[0].Goods, 1)

	resp, _ = get(t, app, "/api/declarations/9999999999")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Divergencias
// ──────────────────────────────────────────────────────────────────────────────

func TestDivergences_DocumentoTeorico(t *testing.T) {
	app := buildTestApp(t, nil)
	resp, _ := post(t, app, "/api/declarations", document(testDI, 100000, 50000))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// 001: 1000,00 vs 985,00 (1,5%) diverge; 002: 500,00 vs 498,00 (0,4%) no.
	resp, body := post(t, app, "/api/declarations/"+testDI+"/divergences", document(testDI, 98500, 49800))
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 1, body["total"])
	assert.Equal(t, "1", body["limiar_pct"])

	items := body["divergencias"].([]any)
	require.Len(t, items, 1)
	m := items[0].(map[string]any)
	assert.Equal(t, "AMOUNT_MISMATCH", m["tipo"])
	assert.Equal(t, "001", m["numero_adicao"])
	assert.Equal(t, "II", m["tributo"])
	assert.Equal(t, "15.00", m["diferenca"])
	assert.Equal(t, "1.5000", m["diferenca_pct"])
}

func TestDivergences_PDF(t *testing.T) {
	app := buildTestApp(t, nil)
	resp, _ := post(t, app, "/api/declarations", document(testDI, 100000))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/declarations/"+testDI+"/divergences?format=pdf",
		bytes.NewReader(document(testDI, 90000)))
	resp, raw := do(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
}

func TestDivergences_DINoExiste(t *testing.T) {
	app := buildTestApp(t, nil)
	resp, _ := post(t, app, "/api/declarations/9999999999/divergences", document("9999999999", 100))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDivergences_Motor(t *testing.T) {
	app := buildTestApp(t, nil)
	resp, _ := get(t, app, "/api/declarations/"+testDI+"/divergences")
	assert.Equal(t, fiber.StatusNotImplemented, resp.StatusCode, "sin motor configurado")

	engine := engineFunc(func(_ context.Context, declared *entity.Declaration) (*entity.Declaration, error) {
		return siscomex.NewExtractor(siscomex.DefaultOptions()).Extract(document(declared.Number, 50000))
	})
	app = buildTestApp(t, engine)
	resp, _ = post(t, app, "/api/declarations", document(testDI, 100000))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, raw := get(t, app, "/api/declarations/"+testDI+"/divergences")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.EqualValues(t, 1, body["total"])

	resp, raw = get(t, app, "/api/declarations/"+testDI+"/divergences?format=pdf")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Operación
// ──────────────────────────────────────────────────────────────────────────────

func TestHealthYMetrics(t *testing.T) {
	app := buildTestApp(t, nil)

	resp, _ := get(t, app, "/health")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	post(t, app, "/api/declarations", document(testDI, 100))

	resp, raw := get(t, app, "/metrics")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `aduana_documents_processed_total{status="completed"} 1`)
	assert.Contains(t, string(raw), "aduana_additions_persisted_total 1")
}
