package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/Aduana-api/internal/domain"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/domain/repository"
)

// Upserter escribe el grafo de la declaración como una unidad atómica usando claves naturales:
// numeroDI para la cabecera, (numeroDI, numeroAdicao) para adiciones, (adición, tributo) para tributos.
// Las mercaderías de cada adición se reemplazan completas, así reprocesar no duplica filas.
type Upserter struct {
	tx TxRunner
}

// NewUpserter construye el escritor sobre el runner transaccional.
func NewUpserter(tx TxRunner) *Upserter {
	return &Upserter{tx: tx}
}

// Persist abre la transacción, escribe todo el grafo y confirma una sola vez.
// Cualquier fallo deja la base intacta y se devuelve como *domain.PersistenceError.
func (u *Upserter) Persist(ctx context.Context, d *entity.Declaration) error {
	if err := validateGraph(d); err != nil {
		return err
	}

	err := u.tx.RunImport(ctx, func(repo repository.DeclarationRepository) error {
		return writeGraph(ctx, repo, d)
	})
	if err == nil {
		return nil
	}
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &domain.PersistenceError{DeclarationNumber: d.Number, Step: "transaction", Err: err}
}

func writeGraph(ctx context.Context, repo repository.DeclarationRepository, d *entity.Declaration) error {
	fail := func(step string, err error) error {
		return &domain.PersistenceError{DeclarationNumber: d.Number, Step: step, Err: err}
	}

	if err := repo.UpsertDeclaration(ctx, d); err != nil {
		return fail("upsert declaration", err)
	}
	for _, a := range d.Additions {
		id, err := repo.UpsertAddition(ctx, d.Number, a)
		if err != nil {
			return fail("upsert addition "+a.Number, err)
		}
		for _, kind := range entity.TaxKinds {
			t := a.Tax(kind)
			if t == nil {
				continue
			}
			if err := repo.UpsertTax(ctx, id, t); err != nil {
				return fail(fmt.Sprintf("upsert tax %s addition %s", kind, a.Number), err)
			}
		}
		if err := repo.ReplaceGoods(ctx, id, a.Goods); err != nil {
			return fail("replace goods addition "+a.Number, err)
		}
	}
	return nil
}

// validateGraph rechaza grafos sin clave natural utilizable antes de abrir la transacción.
func validateGraph(d *entity.Declaration) error {
	if d == nil {
		return fmt.Errorf("%w: declaración nula", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(d.Number) == "" {
		return fmt.Errorf("%w: declaración sin numeroDI", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(d.Additions))
	for _, a := range d.Additions {
		if strings.TrimSpace(a.Number) == "" {
			return fmt.Errorf("%w: DI %s: adición sin numeroAdicao", domain.ErrInvalidInput, d.Number)
		}
		if seen[a.Number] {
			return fmt.Errorf("%w: DI %s: adición %s repetida", domain.ErrInvalidInput, d.Number, a.Number)
		}
		seen[a.Number] = true
		for kind := range a.Taxes {
			if !kind.Valid() {
				return fmt.Errorf("%w: DI %s: tributo desconocido %q", domain.ErrInvalidInput, d.Number, kind)
			}
		}
	}
	return nil
}
