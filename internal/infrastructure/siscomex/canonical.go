package siscomex

import (
	"bytes"
	"encoding/xml"

	"github.com/ucarion/c14n"
)

// Canonicalize devuelve la forma canónica (C14N) del XML: sin declaración, en UTF-8,
// atributos ordenados y elementos vacíos expandidos. Dos copias que solo difieren en la
// serialización producen los mismos bytes.
func Canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charsetReader
	return c14n.Canonicalize(dec)
}
