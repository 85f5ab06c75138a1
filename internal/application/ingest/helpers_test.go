package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/domain/repository"
)

// diXML genera una DI con n adiciones (001..n), cada una con II y una mercadería.
func diXML(number string, n int) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<ListaDeclaracoes><declaracaoImportacao>\n")
	fmt.Fprintf(&b, "<numeroDI>%s</numeroDI><dataRegistro>20240115</dataRegistro>\n", number)
	b.WriteString("<importadorNumero>12345678000199</importadorNumero><importadorNome>IMPORTADORA EXEMPLO LTDA</importadorNome>\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<adicao>
  <numeroAdicao>%03d</numeroAdicao>
  <dadosMercadoriaCodigoNcm>84713012</dadosMercadoriaCodigoNcm>
  <condicaoVendaIncoterm>FOB</condicaoVendaIncoterm>
  <localEmbarqueValorMoeda>000000000100000</localEmbarqueValorMoeda>
  <localEmbarqueValorReais>000000000500000</localEmbarqueValorReais>
  <iiAliquotaValorDevido>000000000080000</iiAliquotaValorDevido>
  <iiBaseCalculo>000000000500000</iiBaseCalculo>
  <iiAliquotaAdValorem>01600</iiAliquotaAdValorem>
  <mercadoria>
    <numeroSequencialItem>01</numeroSequencialItem>
    <descricaoMercadoria>ITEM %d</descricaoMercadoria>
    <quantidade>00000000100000</quantidade>
    <unidadeMedida>UN</unidadeMedida>
    <valorUnitario>00000000010000000000</valorUnitario>
  </mercadoria>
</adicao>
`, i, i)
	}
	b.WriteString("</declaracaoImportacao></ListaDeclaracoes>\n")
	return []byte(b.String())
}

// failingRunner envuelve un TxRunner y hace fallar la n-ésima UpsertAddition.
type failingRunner struct {
	inner  ingest.TxRunner
	failAt int
	err    error
}

func (f *failingRunner) RunImport(ctx context.Context, fn func(repo repository.DeclarationRepository) error) error {
	return f.inner.RunImport(ctx, func(repo repository.DeclarationRepository) error {
		return fn(&failingRepo{DeclarationRepository: repo, failAt: f.failAt, err: f.err})
	})
}

type failingRepo struct {
	repository.DeclarationRepository
	failAt int
	calls  int
	err    error
}

func (r *failingRepo) UpsertAddition(ctx context.Context, declarationNumber string, a *entity.Addition) (int64, error) {
	r.calls++
	if r.calls == r.failAt {
		return 0, r.err
	}
	return r.DeclarationRepository.UpsertAddition(ctx, declarationNumber, a)
}

var errDriver = errors.New("conexión perdida")

// brokenRunner falla al abrir la transacción.
type brokenRunner struct{}

func (brokenRunner) RunImport(context.Context, func(repository.DeclarationRepository) error) error {
	return errDriver
}

type recorderMock struct {
	mock.Mock
}

func (m *recorderMock) IncDocument(status string)     { m.Called(status) }
func (m *recorderMock) ObserveImport(d time.Duration) { m.Called(d) }
func (m *recorderMock) AddAdditions(n int)            { m.Called(n) }
