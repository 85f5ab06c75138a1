package repository

import (
	"context"

	"github.com/jhoicas/Aduana-api/internal/domain/entity"
)

// DeclarationRepository define el puerto de persistencia del grafo DI → Adiciones → {Tributos, Mercaderías}.
// Las implementaciones deben poder atarse a una transacción (ver TxRunner de la capa de aplicación).
type DeclarationRepository interface {
	// UpsertDeclaration inserta o actualiza por numeroDI. No toca las adiciones.
	UpsertDeclaration(ctx context.Context, d *entity.Declaration) error
	// UpsertAddition inserta o actualiza por (numeroDI, numeroAdicao) y devuelve el id asignado.
	UpsertAddition(ctx context.Context, declarationNumber string, a *entity.Addition) (int64, error)
	// UpsertTax inserta o actualiza por (addition_id, tax_kind).
	UpsertTax(ctx context.Context, additionID int64, t *entity.Tax) error
	// ReplaceGoods borra las mercaderías de la adición y reinserta las recibidas.
	ReplaceGoods(ctx context.Context, additionID int64, goods []*entity.GoodsLine) error
	// GetByNumber reconstruye el grafo completo; (nil, nil) si no existe.
	GetByNumber(ctx context.Context, number string) (*entity.Declaration, error)
}
