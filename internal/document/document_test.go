package document

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPDFIsValid(t *testing.T) {
	text := strings.Repeat("Excelentíssimo Senhor, venho respeitosamente apresentar recurso (art. 281).\n", 80)
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, text))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	require.NoError(t, Validate(buf.Bytes()))

	n, err := PageCount(buf.Bytes())
	require.NoError(t, err)
	assert.Greater(t, n, 1)

	first, err := FirstPage(buf.Bytes())
	require.NoError(t, err)
	n, err = PageCount(first)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRenderPDFShortLetterFitsOnePage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, "Ao Ilmo. Sr.\r\n\r\nPresidente da JARI"))
	n, err := PageCount(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRenderPDFWrapsLongWordsAndForeignRunes(t *testing.T) {
	text := strings.Repeat("W", 400) + " ✓ € não"
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, text))
	require.NoError(t, Validate(buf.Bytes()))
}

func TestPreview(t *testing.T) {
	short, cut := Preview("curto", 500)
	assert.False(t, cut)
	assert.Equal(t, "curto", short)

	long := strings.Repeat("é", 520)
	got, cut := Preview(long, 500)
	assert.True(t, cut)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("é", 500)+"\n\n"))
	assert.Contains(t, got, "[... 20 caracteres restantes - Assine para ver o conteúdo completo ...]")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "recurso-AB123456.txt", Filename("AB123456", "txt"))
	assert.Equal(t, "recurso-AB-12-3.pdf", Filename("AB/12 3", "pdf"))
	assert.Equal(t, "recurso-documento.txt", Filename("", "txt"))
}
