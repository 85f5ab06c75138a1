package siscomex_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Aduana-api/internal/domain"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/siscomex"
)

func declarationOf(t *testing.T, src string) *siscomex.Node {
	t.Helper()
	doc, err := siscomex.Parse([]byte(src))
	require.NoError(t, err)
	n, err := doc.Declaration()
	require.NoError(t, err)
	return n
}

func TestChildren_UnoOVariosSiempreSecuencia(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want int
	}{
		{"xml ninguno", `<declaracaoImportacao><numeroDI>1</numeroDI></declaracaoImportacao>`, 0},
		{"xml uno", `<declaracaoImportacao><adicao><numeroAdicao>001</numeroAdicao></adicao></declaracaoImportacao>`, 1},
		{"xml varios", `<declaracaoImportacao><adicao/><adicao/><adicao/></declaracaoImportacao>`, 3},
		{"json ninguno", `{"declaracaoImportacao": {"numeroDI": "1"}}`, 0},
		{"json objeto", `{"declaracaoImportacao": {"adicao": {"numeroAdicao": "001"}}}`, 1},
		{"json arreglo", `{"declaracaoImportacao": {"adicao": [{}, {}, {}]}}`, 3},
		{"json null", `{"declaracaoImportacao": {"adicao": null}}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := declarationOf(t, tc.src)
			assert.Len(t, n.Children(siscomex.TagAddition), tc.want)
		})
	}
}

func TestChildren_ConservaOrdenDeDocumento(t *testing.T) {
	n := declarationOf(t, `<declaracaoImportacao>
		<adicao><numeroAdicao>003</numeroAdicao></adicao>
		<numeroDI>9</numeroDI>
		<adicao><numeroAdicao>001</numeroAdicao></adicao>
	</declaracaoImportacao>`)

	adds := n.Children("adicao")
	require.Len(t, adds, 2)
	assert.Equal(t, "003", adds[0].Text("numeroAdicao"))
	assert.Equal(t, "001", adds[1].Text("numeroAdicao"))
}

func TestNode_IgnoraPrefijoDeNamespace(t *testing.T) {
	n := declarationOf(t, `<di:ListaDeclaracoes xmlns:di="urn:siscomex">
		<di:declaracaoImportacao><di:numeroDI>2400000001</di:numeroDI></di:declaracaoImportacao>
	</di:ListaDeclaracoes>`)
	assert.Equal(t, "2400000001", n.Text("numeroDI"))

	j := declarationOf(t, `{"ns2:declaracaoImportacao": {"ns2:numeroDI": "2400000002"}}`)
	assert.Equal(t, "2400000002", j.Text("numeroDI"))
}

func TestNode_PathYTextAusentes(t *testing.T) {
	n := declarationOf(t, `<declaracaoImportacao><importador><cnpj> 123 </cnpj></importador></declaracaoImportacao>`)

	assert.Equal(t, "123", n.Path("importador", "cnpj"))
	assert.Empty(t, n.Path("importador", "cpf"))
	assert.Empty(t, n.Path("inexistente", "cnpj"))
	assert.Empty(t, n.Text("numeroDI"))
	assert.Nil(t, n.Child("numeroDI"))
	assert.False(t, n.Has("numeroDI"))
}

func TestNode_JSONNumeroYTextoConAtributos(t *testing.T) {
	n := declarationOf(t, `{"declaracaoImportacao": {"numeroDI": 2412345678, "dataRegistro": {"@formato": "AAAAMMDD", "#text": "20240115"}}}`)
	assert.Equal(t, "2412345678", n.Text("numeroDI"))
	assert.Equal(t, "20240115", n.Text("dataRegistro"))
}

func TestDeclaration_PrimeraGana(t *testing.T) {
	n := declarationOf(t, `<ListaDeclaracoes>
		<declaracaoImportacao><numeroDI>A</numeroDI></declaracaoImportacao>
		<declaracaoImportacao><numeroDI>B</numeroDI></declaracaoImportacao>
	</ListaDeclaracoes>`)
	assert.Equal(t, "A", n.Text("numeroDI"))

	j := declarationOf(t, `[{"declaracaoImportacao": [{"numeroDI": "A"}, {"numeroDI": "B"}]}]`)
	assert.Equal(t, "A", j.Text("numeroDI"))
}

func TestDeclaration_DentroDeLaLista(t *testing.T) {
	doc, err := siscomex.Parse([]byte(`<ns:ListaDeclaracoes xmlns:ns="urn:siscomex">
		<ns:declaracaoImportacao><ns:numeroDI>2412345678</ns:numeroDI></ns:declaracaoImportacao>
	</ns:ListaDeclaracoes>`))
	require.NoError(t, err)
	assert.Equal(t, siscomex.TagDeclarationList, doc.Root().Name())

	n, err := doc.Declaration()
	require.NoError(t, err)
	assert.Equal(t, siscomex.TagDeclaration, n.Name())
	assert.Equal(t, "2412345678", n.Text(siscomex.TagNumber))
}

func TestDeclaration_Ausente(t *testing.T) {
	for _, src := range []string{
		`<ListaDeclaracoes/>`,
		`{"ListaDeclaracoes": {}}`,
		`{"declaracaoImportacao": "2400000001"}`,
		`<?xml version="1.0"?><!-- sin elementos -->`,
	} {
		doc, err := siscomex.Parse([]byte(src))
		require.NoError(t, err, src)
		_, err = doc.Declaration()
		assert.True(t, errors.Is(err, domain.ErrStructureMismatch), src)
	}
}

func TestParse_Formato(t *testing.T) {
	doc, err := siscomex.Parse([]byte("\xEF\xBB\xBF  {\"a\": 1}"))
	require.NoError(t, err)
	assert.Equal(t, siscomex.FormatJSON, doc.Format)

	doc, err = siscomex.Parse([]byte(`<a/>`))
	require.NoError(t, err)
	assert.Equal(t, siscomex.FormatXML, doc.Format)
	assert.Equal(t, "a", doc.Root().Name())
}

func TestParse_CierreSinAperturaDespuesDeReanudarNoSeCuenta(t *testing.T) {
	_, err := siscomex.Parse([]byte("<a>\n<b>x &</b>\n</a>"))
	var pf *domain.ParseFailure
	require.True(t, errors.As(err, &pf))
	assert.Len(t, pf.Problems, 1, "%v", pf.Problems)
}

func TestParse_ElementoSinCerrar(t *testing.T) {
	_, err := siscomex.Parse([]byte("<declaracaoImportacao>\n<numeroDI>1</numeroDI>\n"))
	var pf *domain.ParseFailure
	require.True(t, errors.As(err, &pf))
	require.Len(t, pf.Problems, 1)
	assert.Contains(t, pf.Problems[0], "unexpected EOF")
}

func TestParse_CharsetNoSoportado(t *testing.T) {
	_, err := siscomex.Parse([]byte(`<?xml version="1.0" encoding="x-inventado"?><a/>`))
	assert.True(t, errors.Is(err, domain.ErrDocumentSyntax))
}

func TestParse_Windows1252(t *testing.T) {
	src := []byte("<?xml version=\"1.0\" encoding=\"windows-1252\"?><declaracaoImportacao><importadorNome>A\x80B</importadorNome></declaracaoImportacao>")
	n := declarationOf(t, string(src))
	assert.Equal(t, "A€B", n.Text("importadorNome"))
}
