package siscomex

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/multierr"

	"github.com/jhoicas/Aduana-api/internal/domain"
)

// Format representación del documento de entrada.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document documento DI parseado (XML o su versión JSON).
type Document struct {
	Format Format
	root   *Node
}

// Node nodo del documento. Oculta si un elemento repetible vino como escalar o como secuencia:
// Children siempre devuelve una secuencia (0, 1 o N nodos).
type Node struct {
	name string
	elem *etree.Element // XML
	val  any            // JSON: map[string]any, []any, string, json.Number, bool, nil
}

// Parse detecta el formato, valida la sintaxis (acumulando todos los errores) y construye el árbol.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, domain.NewSyntaxFailure("documento vacío")
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return parseJSON(trimmed)
	}
	return parseXML(data)
}

func parseXML(data []byte) (*Document, error) {
	if err := scanSyntax(data); err != nil {
		return nil, syntaxFailure(err)
	}
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	doc.ReadSettings.Entity = xml.HTMLEntity
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, domain.NewSyntaxFailure(err.Error())
	}
	var root *Node
	if el := doc.Root(); el != nil {
		root = &Node{name: localName(el.Tag), elem: el}
	}
	return &Document{Format: FormatXML, root: root}, nil
}

func parseJSON(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, domain.NewSyntaxFailure(jsonProblem(data, err))
	}
	if dec.More() {
		return nil, domain.NewSyntaxFailure("contenido extra después del valor JSON")
	}
	return &Document{Format: FormatJSON, root: &Node{val: v}}, nil
}

func jsonProblem(data []byte, err error) string {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		off := int(se.Offset)
		if off > len(data) {
			off = len(data)
		}
		line := bytes.Count(data[:off], []byte("\n")) + 1
		return fmt.Sprintf("línea %d: %s", line, se.Error())
	}
	return err.Error()
}

// Root nodo raíz (nil si el documento no tiene elementos).
func (d *Document) Root() *Node { return d.root }

// Declaration localiza <declaracaoImportacao> a cualquier profundidad (puede venir envuelta en
// <ListaDeclaracoes> o directamente como raíz). Si hay varias gana la primera, en anchura.
func (d *Document) Declaration() (*Node, error) {
	if d == nil || d.root == nil {
		return nil, domain.NewStructureFailure(TagDeclaration)
	}
	// Forma oficial: <ListaDeclaracoes> con las declaraciones como hijos directos.
	if d.root.Name() == TagDeclarationList {
		for _, n := range d.root.Children(TagDeclaration) {
			if n.isContainer() {
				return n, nil
			}
		}
	}
	queue := []*Node{d.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.Name() == TagDeclaration && n.isContainer() {
			return n, nil
		}
		queue = append(queue, n.all()...)
	}
	return nil, domain.NewStructureFailure(TagDeclaration)
}

// Name nombre local del nodo.
func (n *Node) Name() string { return n.name }

// Children hijos directos con ese nombre local, en orden de documento. Nunca nil-vs-escalar.
func (n *Node) Children(tag string) []*Node {
	if n == nil {
		return nil
	}
	if n.elem != nil {
		var out []*Node
		for _, c := range n.elem.ChildElements() {
			if localName(c.Tag) == tag {
				out = append(out, &Node{name: tag, elem: c})
			}
		}
		return out
	}
	obj, ok := n.val.(map[string]any)
	if !ok {
		return nil
	}
	var out []*Node
	for _, key := range sortedKeys(obj) {
		if localName(key) != tag {
			continue
		}
		out = append(out, expand(tag, obj[key])...)
	}
	return out
}

// Child primer hijo con ese nombre o nil.
func (n *Node) Child(tag string) *Node {
	if c := n.Children(tag); len(c) > 0 {
		return c[0]
	}
	return nil
}

// Has indica si el hijo existe con texto no vacío.
func (n *Node) Has(tag string) bool { return n.Text(tag) != "" }

// Text texto (sin espacios alrededor) del primer hijo con ese nombre; "" si no existe.
func (n *Node) Text(tag string) string { return n.Child(tag).Value() }

// Path sigue la cadena de hijos y devuelve el texto del último; "" si algún eslabón falta.
func (n *Node) Path(tags ...string) string {
	cur := n
	for _, t := range tags {
		cur = cur.Child(t)
		if cur == nil {
			return ""
		}
	}
	return cur.Value()
}

// Value texto propio del nodo.
func (n *Node) Value() string {
	if n == nil {
		return ""
	}
	if n.elem != nil {
		return strings.TrimSpace(n.elem.Text())
	}
	switch v := n.val.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case map[string]any:
		// Convertidores XML→JSON dejan el texto en "#text" cuando el elemento tiene atributos.
		if t, ok := v["#text"].(string); ok {
			return strings.TrimSpace(t)
		}
	}
	return ""
}

func (n *Node) isContainer() bool {
	if n.elem != nil {
		return true
	}
	_, ok := n.val.(map[string]any)
	return ok
}

// all todos los hijos directos (para la búsqueda de la declaración).
func (n *Node) all() []*Node {
	if n.elem != nil {
		children := n.elem.ChildElements()
		out := make([]*Node, 0, len(children))
		for _, c := range children {
			out = append(out, &Node{name: localName(c.Tag), elem: c})
		}
		return out
	}
	switch v := n.val.(type) {
	case map[string]any:
		var out []*Node
		for _, key := range sortedKeys(v) {
			out = append(out, expand(localName(key), v[key])...)
		}
		return out
	case []any:
		return expand(n.name, v)
	}
	return nil
}

// expand normaliza el valor JSON de una clave: arreglo → N nodos, cualquier otro → 1 nodo.
func expand(name string, v any) []*Node {
	if arr, ok := v.([]any); ok {
		out := make([]*Node, 0, len(arr))
		for _, item := range arr {
			out = append(out, &Node{name: name, val: item})
		}
		return out
	}
	if v == nil {
		return nil
	}
	return []*Node{{name: name, val: v}}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.HasPrefix(k, "@") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// localName quita el prefijo de namespace ("ns2:adicao" → "adicao").
func localName(tag string) string {
	if i := strings.LastIndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

func syntaxFailure(err error) *domain.ParseFailure {
	errs := multierr.Errors(err)
	problems := make([]string, 0, len(errs))
	for _, e := range errs {
		problems = append(problems, e.Error())
	}
	return domain.NewSyntaxFailure(problems...)
}
