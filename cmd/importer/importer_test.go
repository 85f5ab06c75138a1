package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/memory"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/siscomex"
	"github.com/jhoicas/Aduana-api/pkg/logger"
)

func writeDI(t *testing.T, dir, name, number string) string {
	t.Helper()
	doc := fmt.Sprintf(`<ListaDeclaracoes><declaracaoImportacao>
<numeroDI>%s</numeroDI><dataRegistro>20240115</dataRegistro>
<adicao><numeroAdicao>001</numeroAdicao><iiAliquotaValorDevido>000000000080000</iiAliquotaValorDevido></adicao>
</declaracaoImportacao></ListaDeclaracoes>`, number)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestCollectFiles_ExpandeDirectorios(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	a := writeDI(t, dir, "b.xml", "1")
	b := writeDI(t, sub, "a.JSON", "2")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notas.txt"), []byte("x"), 0o644))

	files, err := collectFiles([]string{dir, a})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files, "ordenado, sin .txt y sin repetidos")
}

func TestCollectFiles_RutaInexistente(t *testing.T) {
	_, err := collectFiles([]string{filepath.Join(t.TempDir(), "no-existe")})
	assert.Error(t, err)
}

func TestRunBatch_EnMemoria(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeDI(t, dir, "di1.xml", "2400000001"),
		writeDI(t, dir, "di2.xml", "2400000002"),
		writeDI(t, dir, "di2-copia.xml", "2400000002"),
		filepath.Join(dir, "faltante.xml"),
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roto.xml"), []byte("<a><b></a>"), 0o644))
	files = append(files, filepath.Join(dir, "roto.xml"))

	store := memory.NewStore()
	uc := ingest.NewImportUseCase(
		siscomex.NewExtractor(siscomex.DefaultOptions()),
		ingest.NewUpserter(store),
		ingest.NewRegistrar(memory.NewProcessedDocumentStore()),
		nil, logger.Nop(), ingest.ImportOptions{},
	)

	// Un solo worker: la copia siempre llega después del original.
	s := runBatch(context.Background(), uc, files, 1, false, logger.Nop())

	assert.EqualValues(t, 2, s.Imported)
	assert.EqualValues(t, 1, s.Duplicates)
	assert.EqualValues(t, 2, s.Failed, "archivo faltante y XML roto")
	assert.EqualValues(t, 2, s.Additions)

	declarations, additions, _, _ := store.Counts()
	assert.Equal(t, 2, declarations)
	assert.Equal(t, 2, additions)

	var out bytes.Buffer
	printSummary(&out, s)
	assert.Contains(t, out.String(), "importados: 2  duplicados: 1  fallidos: 2")
}

func TestPrintMismatches(t *testing.T) {
	var out bytes.Buffer
	printMismatches(&out, "2400000001", decimal.NewFromInt(1), []entity.Mismatch{{
		Kind:           entity.MismatchAmount,
		AdditionNumber: "001",
		TaxKind:        entity.TaxII,
		Declared:       decimal.RequireFromString("800"),
		Theoretical:    decimal.RequireFromString("750"),
		Delta:          decimal.RequireFromString("50"),
		DeltaPct:       decimal.RequireFromString("6.25"),
	}})
	s := out.String()
	assert.Contains(t, s, "DI 2400000001  umbral 1%  divergencias 1")
	assert.Contains(t, s, "AMOUNT_MISMATCH")
	assert.Contains(t, s, "800.00")
	assert.Contains(t, s, "6.25")
}

func TestPrintMismatches_SinDivergencias(t *testing.T) {
	var out bytes.Buffer
	printMismatches(&out, "1", decimal.NewFromInt(1), nil)
	assert.Equal(t, "DI 1  umbral 1%  divergencias 0\n", out.String())
}
