package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/domain/repository"
)

var _ repository.DeclarationRepository = (*DeclarationRepo)(nil)

var goodsColumns = []string{"addition_id", "sequence_number", "description", "quantity", "unit", "unit_value"}

// DeclarationRepo implementación de DeclarationRepository (usable con pool o tx).
type DeclarationRepo struct {
	q Querier
}

// NewDeclarationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDeclarationRepository(q Querier) *DeclarationRepo {
	return &DeclarationRepo{q: q}
}

// UpsertDeclaration inserta o actualiza la cabecera por declaration_number.
func (r *DeclarationRepo) UpsertDeclaration(ctx context.Context, d *entity.Declaration) error {
	query := `
		INSERT INTO declarations (declaration_number, registration_date, importer_tax_id, importer_name,
		                          addition_count, total_value_source, total_value_local)
		VALUES ($1, NULLIF($2, '')::date, $3, $4, $5, $6, $7)
		ON CONFLICT (declaration_number) DO UPDATE
		SET registration_date  = EXCLUDED.registration_date,
		    importer_tax_id    = EXCLUDED.importer_tax_id,
		    importer_name      = EXCLUDED.importer_name,
		    addition_count     = EXCLUDED.addition_count,
		    total_value_source = EXCLUDED.total_value_source,
		    total_value_local  = EXCLUDED.total_value_local,
		    updated_at         = now()
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		d.Number, d.RegistrationDate, nullIfEmpty(d.ImporterTaxID), nullIfEmpty(d.ImporterName),
		d.AdditionCount, d.TotalValueSource, d.TotalValueLocal,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert declaration: %w", err)
	}
	return nil
}

// UpsertAddition inserta o actualiza por (declaration_number, addition_number) y devuelve el id.
func (r *DeclarationRepo) UpsertAddition(ctx context.Context, declarationNumber string, a *entity.Addition) (int64, error) {
	query := `
		INSERT INTO additions (declaration_number, addition_number, tariff_code, incoterm, incoterm_place,
		                       valuation_basis, value_source, value_local, currency_code, currency_name,
		                       net_weight, gross_weight)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (declaration_number, addition_number) DO UPDATE
		SET tariff_code     = EXCLUDED.tariff_code,
		    incoterm        = EXCLUDED.incoterm,
		    incoterm_place  = EXCLUDED.incoterm_place,
		    valuation_basis = EXCLUDED.valuation_basis,
		    value_source    = EXCLUDED.value_source,
		    value_local     = EXCLUDED.value_local,
		    currency_code   = EXCLUDED.currency_code,
		    currency_name   = EXCLUDED.currency_name,
		    net_weight      = EXCLUDED.net_weight,
		    gross_weight    = EXCLUDED.gross_weight
		RETURNING id`
	var id int64
	err := r.q.QueryRow(ctx, query,
		declarationNumber, a.Number, nullIfEmpty(a.TariffCode), nullIfEmpty(a.Incoterm), nullIfEmpty(a.IncotermPlace),
		nullIfEmpty(a.ValuationBasis), a.ValueSource, a.ValueLocal, nullIfEmpty(a.CurrencyCode), nullIfEmpty(a.CurrencyName),
		a.NetWeight, a.GrossWeight,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("addition %s: declaration %s does not exist: %w", a.Number, declarationNumber, err)
		}
		return 0, fmt.Errorf("upsert addition: %w", err)
	}
	a.ID = id
	a.DeclarationNumber = declarationNumber
	return id, nil
}

// UpsertTax inserta o actualiza por (addition_id, tax_kind).
func (r *DeclarationRepo) UpsertTax(ctx context.Context, additionID int64, t *entity.Tax) error {
	query := `
		INSERT INTO addition_taxes (addition_id, tax_kind, amount, base, rate)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (addition_id, tax_kind) DO UPDATE
		SET amount = EXCLUDED.amount,
		    base   = EXCLUDED.base,
		    rate   = EXCLUDED.rate`
	_, err := r.q.Exec(ctx, query, additionID, string(t.Kind), t.Amount, t.Base, t.Rate)
	if err != nil {
		return fmt.Errorf("upsert tax %s: %w", t.Kind, err)
	}
	return nil
}

// ReplaceGoods borra las líneas de la adición y las reinserta con COPY.
func (r *DeclarationRepo) ReplaceGoods(ctx context.Context, additionID int64, goods []*entity.GoodsLine) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM addition_goods WHERE addition_id = $1`, additionID); err != nil {
		return fmt.Errorf("delete goods: %w", err)
	}
	if len(goods) == 0 {
		return nil
	}
	_, err := r.q.CopyFrom(ctx, pgx.Identifier{"addition_goods"}, goodsColumns,
		pgx.CopyFromSlice(len(goods), func(i int) ([]any, error) {
			g := goods[i]
			g.AdditionID = additionID
			return []any{additionID, nullIfEmpty(g.Sequence), nullIfEmpty(g.Description), g.Quantity, nullIfEmpty(g.Unit), g.UnitValue}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy goods: %w", err)
	}
	return nil
}

// GetByNumber reconstruye el grafo completo; (nil, nil) si no existe.
func (r *DeclarationRepo) GetByNumber(ctx context.Context, number string) (*entity.Declaration, error) {
	query := `
		SELECT id, declaration_number, COALESCE(to_char(registration_date, 'YYYY-MM-DD'), ''),
		       importer_tax_id, importer_name, addition_count, total_value_source, total_value_local,
		       created_at, updated_at
		FROM declarations WHERE declaration_number = $1`
	d := &entity.Declaration{}
	var taxID, name *string
	err := r.q.QueryRow(ctx, query, number).Scan(
		&d.ID, &d.Number, &d.RegistrationDate, &taxID, &name, &d.AdditionCount,
		&d.TotalValueSource, &d.TotalValueLocal, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get declaration: %w", err)
	}
	d.ImporterTaxID = emptyIfNull(taxID)
	d.ImporterName = emptyIfNull(name)

	byID, ids, err := r.loadAdditions(ctx, d)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return d, nil
	}
	if err := r.loadTaxes(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := r.loadGoods(ctx, ids, byID); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DeclarationRepo) loadAdditions(ctx context.Context, d *entity.Declaration) (map[int64]*entity.Addition, []int64, error) {
	query := `
		SELECT id, addition_number, tariff_code, incoterm, incoterm_place, valuation_basis,
		       value_source, value_local, currency_code, currency_name, net_weight, gross_weight
		FROM additions WHERE declaration_number = $1
		ORDER BY addition_number, id`
	rows, err := r.q.Query(ctx, query, d.Number)
	if err != nil {
		return nil, nil, fmt.Errorf("list additions: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*entity.Addition)
	var ids []int64
	for rows.Next() {
		a := &entity.Addition{DeclarationNumber: d.Number, Taxes: make(map[entity.TaxKind]*entity.Tax, len(entity.TaxKinds))}
		var tariff, incoterm, place, basis, currCode, currName *string
		if err := rows.Scan(&a.ID, &a.Number, &tariff, &incoterm, &place, &basis,
			&a.ValueSource, &a.ValueLocal, &currCode, &currName, &a.NetWeight, &a.GrossWeight); err != nil {
			return nil, nil, fmt.Errorf("scan addition: %w", err)
		}
		a.TariffCode = emptyIfNull(tariff)
		a.Incoterm = emptyIfNull(incoterm)
		a.IncotermPlace = emptyIfNull(place)
		a.ValuationBasis = emptyIfNull(basis)
		a.CurrencyCode = emptyIfNull(currCode)
		a.CurrencyName = emptyIfNull(currName)
		d.Additions = append(d.Additions, a)
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("list additions: %w", err)
	}
	return byID, ids, nil
}

func (r *DeclarationRepo) loadTaxes(ctx context.Context, ids []int64, byID map[int64]*entity.Addition) error {
	rows, err := r.q.Query(ctx,
		`SELECT addition_id, tax_kind, amount, base, rate FROM addition_taxes WHERE addition_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("list taxes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var additionID int64
		var kind string
		t := &entity.Tax{}
		var base decimal.NullDecimal
		if err := rows.Scan(&additionID, &kind, &t.Amount, &base, &t.Rate); err != nil {
			return fmt.Errorf("scan tax: %w", err)
		}
		t.Kind = entity.TaxKind(kind)
		t.Base = base
		if a := byID[additionID]; a != nil {
			a.Taxes[t.Kind] = t
		}
	}
	return rows.Err()
}

func (r *DeclarationRepo) loadGoods(ctx context.Context, ids []int64, byID map[int64]*entity.Addition) error {
	rows, err := r.q.Query(ctx, `
		SELECT id, addition_id, sequence_number, description, quantity, unit, unit_value
		FROM addition_goods WHERE addition_id = ANY($1)
		ORDER BY addition_id, id`, ids)
	if err != nil {
		return fmt.Errorf("list goods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		g := &entity.GoodsLine{}
		var seq, desc, unit *string
		if err := rows.Scan(&g.ID, &g.AdditionID, &seq, &desc, &g.Quantity, &unit, &g.UnitValue); err != nil {
			return fmt.Errorf("scan goods: %w", err)
		}
		g.Sequence = emptyIfNull(seq)
		g.Description = emptyIfNull(desc)
		g.Unit = emptyIfNull(unit)
		if a := byID[g.AdditionID]; a != nil {
			a.Goods = append(a.Goods, g)
		}
	}
	return rows.Err()
}
