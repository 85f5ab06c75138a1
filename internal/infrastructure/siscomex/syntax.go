package siscomex

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
)

// maxSyntaxProblems límite de quejas acumuladas por documento.
const maxSyntaxProblems = 20

// scanSyntax recorre el XML token a token y acumula todos los errores de sintaxis.
// encoding/xml se detiene en el primer error, así que tras cada uno se reanuda el escaneo
// en el siguiente '<'. Los cierres huérfanos tras reanudar se ignoran: su apertura quedó
// antes del punto de reanudación.
func scanSyntax(data []byte) error {
	var errs error
	count := 0
	offset := 0
	resumed := false

	for offset < len(data) && count < maxSyntaxProblems {
		dec := xml.NewDecoder(bytes.NewReader(data[offset:]))
		dec.Strict = true
		dec.Entity = xml.HTMLEntity
		dec.CharsetReader = charsetReader

		var stop int
		for {
			_, err := dec.Token()
			if err == io.EOF {
				return errs
			}
			if err == nil {
				continue
			}
			stop = offset + int(dec.InputOffset())
			if !(resumed && isOrphanClose(err)) {
				errs = multierr.Append(errs, problemAt(data, stop, err))
				count++
			}
			break
		}

		from := stop
		if from <= offset {
			from = offset + 1
		}
		if from >= len(data) {
			break
		}
		next := bytes.IndexByte(data[from:], '<')
		if next < 0 {
			break
		}
		offset = from + next
		resumed = true
	}
	return errs
}

func isOrphanClose(err error) bool {
	var se *xml.SyntaxError
	return errors.As(err, &se) && strings.HasPrefix(se.Msg, "unexpected end element")
}

// problemAt describe el error con la línea absoluta en el documento.
func problemAt(data []byte, offset int, err error) error {
	if offset > len(data) {
		offset = len(data)
	}
	line := bytes.Count(data[:offset], []byte("\n")) + 1
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return fmt.Errorf("línea %d: %s", line, se.Msg)
	}
	return fmt.Errorf("línea %d: %w", line, err)
}
