package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("documento ya procesado")
	ErrTooLarge     = errors.New("documento excede el tamaño máximo")
	ErrNotSupported = errors.New("operación no disponible")

	// ErrDocumentSyntax: el documento no es XML/JSON bien formado.
	ErrDocumentSyntax = errors.New("documento con sintaxis inválida")
	// ErrStructureMismatch: el documento parsea pero no contiene la declaración esperada.
	ErrStructureMismatch = errors.New("estructura de documento inesperada")
	// ErrPersistence: fallo dentro de la transacción de importación (se hizo rollback).
	ErrPersistence = errors.New("error de persistencia")
)

// Tipos de ParseFailure.
const (
	FailureSyntax    = "DOCUMENT_SYNTAX"
	FailureStructure = "STRUCTURE_MISMATCH"
)

// ParseFailure error tipado de la extracción. Nunca se devuelve un grafo parcial junto con él.
type ParseFailure struct {
	Kind     string   // FailureSyntax | FailureStructure
	Element  string   // Elemento raíz buscado (solo FailureStructure)
	Problems []string // Todas las quejas de sintaxis encontradas (solo FailureSyntax)
}

// NewSyntaxFailure construye un fallo de sintaxis con todos los problemas detectados.
func NewSyntaxFailure(problems ...string) *ParseFailure {
	return &ParseFailure{Kind: FailureSyntax, Problems: problems}
}

// NewStructureFailure construye un fallo por elemento raíz ausente.
func NewStructureFailure(element string) *ParseFailure {
	return &ParseFailure{Kind: FailureStructure, Element: element}
}

func (e *ParseFailure) Error() string {
	if e.Kind == FailureStructure {
		return fmt.Sprintf("%s: no se encontró el elemento <%s>", ErrStructureMismatch, e.Element)
	}
	return fmt.Sprintf("%s: %s", ErrDocumentSyntax, strings.Join(e.Problems, "; "))
}

// Is permite errors.Is(err, ErrDocumentSyntax) y errors.Is(err, ErrStructureMismatch).
func (e *ParseFailure) Is(target error) bool {
	switch target {
	case ErrDocumentSyntax:
		return e.Kind == FailureSyntax
	case ErrStructureMismatch:
		return e.Kind == FailureStructure
	}
	return false
}

// PersistenceError envuelve cualquier fallo de la transacción de importación.
type PersistenceError struct {
	DeclarationNumber string
	Step              string // ej: "upsert addition 003"
	Err               error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: DI %s: %s: %v", ErrPersistence, e.DeclarationNumber, e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrPersistence).
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
