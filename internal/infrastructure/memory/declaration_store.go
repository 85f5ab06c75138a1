// Package memory implementa los puertos de persistencia en memoria, con transacciones
// todo-o-nada (copia del estado y swap en commit). Se usa en tests y en el modo --dry-run.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/domain/repository"
)

var (
	_ ingest.TxRunner                  = (*Store)(nil)
	_ repository.DeclarationRepository = (*txRepo)(nil)
	_ repository.DeclarationRepository = (*lockedRepo)(nil)
)

type additionKey struct {
	declaration string
	number      string
}

type taxKey struct {
	additionID int64
	kind       entity.TaxKind
}

type state struct {
	nextID       int64
	declarations map[string]entity.Declaration
	additions    map[additionKey]entity.Addition
	taxes        map[taxKey]entity.Tax
	goods        map[int64][]entity.GoodsLine
}

func newState() *state {
	return &state{
		declarations: make(map[string]entity.Declaration),
		additions:    make(map[additionKey]entity.Addition),
		taxes:        make(map[taxKey]entity.Tax),
		goods:        make(map[int64][]entity.GoodsLine),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for k, v := range s.declarations {
		c.declarations[k] = v
	}
	for k, v := range s.additions {
		c.additions[k] = v
	}
	for k, v := range s.taxes {
		c.taxes[k] = v
	}
	for k, v := range s.goods {
		c.goods[k] = append([]entity.GoodsLine(nil), v...)
	}
	return c
}

// Store almacén en memoria del grafo de declaraciones. Implementa ingest.TxRunner.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{state: newState()}
}

// RunImport ejecuta fn sobre una copia del estado; solo si fn termina sin error la copia
// reemplaza al estado confirmado. Las transacciones se serializan.
func (s *Store) RunImport(ctx context.Context, fn func(repo repository.DeclarationRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&txRepo{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.state = work
	return nil
}

// Repository acceso fuera de transacción (cada operación toma el lock).
func (s *Store) Repository() repository.DeclarationRepository {
	return &lockedRepo{s: s}
}

// Counts filas confirmadas por tabla lógica: declaraciones, adiciones, tributos, mercaderías.
func (s *Store) Counts() (declarations, additions, taxes, goods int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.state.goods {
		goods += len(g)
	}
	return len(s.state.declarations), len(s.state.additions), len(s.state.taxes), goods
}

// txRepo opera sobre un estado sin locking; el llamador garantiza exclusividad.
type txRepo struct {
	st *state
}

func (r *txRepo) id() int64 {
	r.st.nextID++
	return r.st.nextID
}

func (r *txRepo) UpsertDeclaration(_ context.Context, d *entity.Declaration) error {
	now := time.Now().UTC()
	row, ok := r.st.declarations[d.Number]
	if !ok {
		row = entity.Declaration{ID: r.id(), Number: d.Number, CreatedAt: now}
	}
	row.RegistrationDate = d.RegistrationDate
	row.ImporterTaxID = d.ImporterTaxID
	row.ImporterName = d.ImporterName
	row.AdditionCount = d.AdditionCount
	row.TotalValueSource = d.TotalValueSource
	row.TotalValueLocal = d.TotalValueLocal
	row.UpdatedAt = now
	r.st.declarations[d.Number] = row

	d.ID, d.CreatedAt, d.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *txRepo) UpsertAddition(_ context.Context, declarationNumber string, a *entity.Addition) (int64, error) {
	if _, ok := r.st.declarations[declarationNumber]; !ok {
		return 0, fmt.Errorf("addition %s: declaration %s does not exist", a.Number, declarationNumber)
	}
	key := additionKey{declaration: declarationNumber, number: a.Number}
	id := r.st.additions[key].ID
	if id == 0 {
		id = r.id()
	}
	row := *a
	row.ID = id
	row.DeclarationNumber = declarationNumber
	row.Taxes = nil
	row.Goods = nil
	r.st.additions[key] = row

	a.ID = id
	a.DeclarationNumber = declarationNumber
	return id, nil
}

func (r *txRepo) UpsertTax(_ context.Context, additionID int64, t *entity.Tax) error {
	if !t.Kind.Valid() {
		return fmt.Errorf("upsert tax: tipo desconocido %q", t.Kind)
	}
	r.st.taxes[taxKey{additionID: additionID, kind: t.Kind}] = *t
	return nil
}

func (r *txRepo) ReplaceGoods(_ context.Context, additionID int64, goods []*entity.GoodsLine) error {
	rows := make([]entity.GoodsLine, 0, len(goods))
	for _, g := range goods {
		g.AdditionID = additionID
		row := *g
		row.ID = r.id()
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		delete(r.st.goods, additionID)
		return nil
	}
	r.st.goods[additionID] = rows
	return nil
}

func (r *txRepo) GetByNumber(_ context.Context, number string) (*entity.Declaration, error) {
	row, ok := r.st.declarations[number]
	if !ok {
		return nil, nil
	}
	d := row
	d.Additions = nil

	var adds []entity.Addition
	for k, a := range r.st.additions {
		if k.declaration == number {
			adds = append(adds, a)
		}
	}
	sort.Slice(adds, func(i, j int) bool {
		if adds[i].Number != adds[j].Number {
			return adds[i].Number < adds[j].Number
		}
		return adds[i].ID < adds[j].ID
	})

	for i := range adds {
		a := adds[i]
		a.Taxes = make(map[entity.TaxKind]*entity.Tax, len(entity.TaxKinds))
		for _, kind := range entity.TaxKinds {
			if t, ok := r.st.taxes[taxKey{additionID: a.ID, kind: kind}]; ok {
				t := t
				a.Taxes[kind] = &t
			}
		}
		for _, g := range r.st.goods[a.ID] {
			g := g
			a.Goods = append(a.Goods, &g)
		}
		d.Additions = append(d.Additions, &a)
	}
	return &d, nil
}

// lockedRepo adapta txRepo al estado confirmado tomando el lock del Store.
type lockedRepo struct {
	s *Store
}

func (r *lockedRepo) UpsertDeclaration(ctx context.Context, d *entity.Declaration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&txRepo{st: r.s.state}).UpsertDeclaration(ctx, d)
}

func (r *lockedRepo) UpsertAddition(ctx context.Context, declarationNumber string, a *entity.Addition) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&txRepo{st: r.s.state}).UpsertAddition(ctx, declarationNumber, a)
}

func (r *lockedRepo) UpsertTax(ctx context.Context, additionID int64, t *entity.Tax) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&txRepo{st: r.s.state}).UpsertTax(ctx, additionID, t)
}

func (r *lockedRepo) ReplaceGoods(ctx context.Context, additionID int64, goods []*entity.GoodsLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return (&txRepo{st: r.s.state}).ReplaceGoods(ctx, additionID, goods)
}

func (r *lockedRepo) GetByNumber(ctx context.Context, number string) (*entity.Declaration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return (&txRepo{st: r.s.state}).GetByNumber(ctx, number)
}
