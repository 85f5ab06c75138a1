package entity

import "time"

// Estados del registro de procesamiento.
const (
	ProcessingCompleted = "COMPLETED"
	ProcessingFailed    = "FAILED"
)

// ProcessedDocument traza de auditoría de un documento procesado (detección de duplicados por contenido).
type ProcessedDocument struct {
	ID                string
	ContentHash       string // SHA-256 hex de los bytes originales
	CanonicalHash     string // SHA-256 hex de la forma C14N (vacío si no es XML)
	OriginalFilename  string
	DeclarationNumber string
	Incoterm          string
	ByteSize          int64
	Status            string // ProcessingCompleted | ProcessingFailed
	ErrorMessage      string
	ProcessedAt       time.Time
}
