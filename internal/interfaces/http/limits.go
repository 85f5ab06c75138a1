package http

import "math"

// multipartOverhead margen para el sobre multipart sobre el tamaño del documento.
const multipartOverhead = 1 << 20

// BodyLimit límite de cuerpo de fiber para un tamaño máximo de documento.
// maxDocumentBytes <= 0 significa sin límite; fiber reemplaza 0 por su default de 4 MiB.
func BodyLimit(maxDocumentBytes int64) int {
	if maxDocumentBytes <= 0 || maxDocumentBytes > math.MaxInt-multipartOverhead {
		return math.MaxInt
	}
	return int(maxDocumentBytes) + multipartOverhead
}
