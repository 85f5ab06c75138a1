package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Aduana-api/internal/domain"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/domain/repository"
)

// QueryUseCase lectura de declaraciones ya persistidas.
type QueryUseCase struct {
	repo repository.DeclarationRepository
}

// NewQueryUseCase construye el caso de uso de consulta.
func NewQueryUseCase(repo repository.DeclarationRepository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

// Get reconstruye el grafo de la DI; domain.ErrNotFound si no existe.
func (uc *QueryUseCase) Get(ctx context.Context, number string) (*entity.Declaration, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, domain.ErrInvalidInput
	}
	d, err := uc.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("obtener DI %s: %w", number, err)
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	return d, nil
}
