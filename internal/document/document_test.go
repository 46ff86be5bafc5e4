package document

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Research Paper Title</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="Heading2"/><w:rPr><w:b/></w:rPr></w:pPr><w:r><w:t>Abstract</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Children &amp; adolescents </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>aged 5</w:t></w:r><w:r><w:rPr><w:b w:val="true"/></w:rPr><w:t>-12</w:t></w:r><w:r><w:t xml:space="preserve"> were enrolled.</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Fig. 1</w:t></w:r><w:r><w:rPr><w:b w:val="0"/></w:rPr><w:t xml:space="preserve"> Caption</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="heading 3"/></w:pPr><w:r><w:t>References</w:t></w:r></w:p>
    <w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr><w:r><w:t>[1] Smith, J. DOI: 10.1000/x</w:t></w:r></w:p>
    <w:p><w:pPr><w:pStyle w:val="ListParagraph"/></w:pPr><w:r><w:t>[2] Jones &lt;2022&gt;</w:t></w:r></w:p>
    <w:p><w:r><w:t>Tab</w:t><w:tab/><w:t>bed</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDOCX(t *testing.T, members map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manuscript.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDOCXExtractor(t *testing.T) {
	path := writeDOCX(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		documentPart:          documentXML,
	})

	got, err := DOCXExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)

	want := strings.Join([]string{
		"<h1>Research Paper Title</h1>",
		"<h2>Abstract</h2>",
		"<p>Children &amp; adolescents <strong>aged 5-12</strong> were enrolled.</p>",
		"<p><strong>Fig. 1</strong> Caption</p>",
		"<h3>References</h3>",
		"<ul>",
		"<li>[1] Smith, J. DOI: 10.1000/x</li>",
		"<li>[2] Jones &lt;2022&gt;</li>",
		"</ul>",
		"<p>Tab\tbed</p>",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestDOCXExtractor_Errors(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		path := writeFile(t, "broken.docx", "definitely not a zip archive")
		_, err := DOCXExtractor{}.Extract(context.Background(), path)

		var ee *ExtractionError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, FormatDOCX, ee.Format)
		assert.Equal(t, path, ee.Path)
	})

	t.Run("missing document part", func(t *testing.T) {
		path := writeDOCX(t, map[string]string{"word/styles.xml": "<styles/>"})
		_, err := DOCXExtractor{}.Extract(context.Background(), path)
		assert.ErrorIs(t, err, errNoDocumentPart)
	})

	t.Run("malformed xml", func(t *testing.T) {
		path := writeDOCX(t, map[string]string{documentPart: `<w:document xmlns:w="x"><w:body>`})
		_, err := DOCXExtractor{}.Extract(context.Background(), path)
		var ee *ExtractionError
		assert.True(t, errors.As(err, &ee))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := DOCXExtractor{}.Extract(ctx, "whatever.docx")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHTMLExtractor(t *testing.T) {
	path := writeFile(t, "paper.html", `<!DOCTYPE html>
<html>
<head><title>ignored</title><style>h1 { color: red }</style></head>
<body>
  <script>alert("x")</script>
  <!-- draft note -->
  <h1>Research Paper Title</h1>


  <h2>Abstract</h2>
  <p>Short <strong>abstract</strong>.</p>
  <noscript>enable js</noscript>
</body>
</html>`)

	got, err := HTMLExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Contains(t, got, "<h1>Research Paper Title</h1>")
	assert.Contains(t, got, "<p>Short <strong>abstract</strong>.</p>")
	for _, gone := range []string{"ignored", "color: red", "alert", "draft note", "enable js", "<body>"} {
		assert.NotContains(t, got, gone)
	}
	assert.NotContains(t, got, "\n\n")
}

func TestHTMLExtractor_Fragment(t *testing.T) {
	path := writeFile(t, "fragment.htm", `<p>Only a paragraph</p>`)
	got, err := HTMLExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "<p>Only a paragraph</p>", got)
}

func TestTextExtractor(t *testing.T) {
	path := writeFile(t, "notes.md", "\uFEFF# Title\n\nBody text.\n")
	got, err := TextExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text.\n", got)

	bad := writeFile(t, "latin1.txt", "caf\xe9")
	_, err = TextExtractor{}.Extract(context.Background(), bad)
	assert.ErrorIs(t, err, errNotUTF8)

	_, err = TextExtractor{}.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want Extractor
	}{
		{"a.docx", DOCXExtractor{}},
		{"A.DOCX", DOCXExtractor{}},
		{"page.html", HTMLExtractor{}},
		{"page.htm", HTMLExtractor{}},
		{"notes.txt", TextExtractor{}},
		{"README.md", TextExtractor{}},
		{"x.markdown", TextExtractor{}},
	}
	for _, tt := range tests {
		got, err := ForPath(tt.path)
		require.NoError(t, err, tt.path)
		assert.IsType(t, tt.want, got, tt.path)
	}

	for _, unsupported := range []string{"paper.pdf", "paper.doc", "Makefile"} {
		_, err := ForPath(unsupported)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, unsupported)
	}
}

func TestExtract(t *testing.T) {
	path := writeFile(t, "doc.txt", "hello")
	got, err := Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = Extract(context.Background(), "doc.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractionError(t *testing.T) {
	err := &ExtractionError{Path: "a.docx", Format: FormatDOCX, Err: errNoDocumentPart}
	assert.Equal(t, "extract docx document a.docx: archive has no word/document.xml", err.Error())
	assert.ErrorIs(t, err, errNoDocumentPart)
}
