package extract

import (
	"testing"

	"github.com/muhammadolammi/careerpath/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPlainPassthrough(t *testing.T) {
	got, err := Text(MimeText, []byte("Jane Doe\nGo developer"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo developer", got)
}

func TestTextRejectsUnsupported(t *testing.T) {
	_, err := Text("image/png", []byte{0x89, 'P', 'N', 'G'})
	assert.ErrorIs(t, err, generation.ErrUnsupportedDocument)
	assert.Equal(t, generation.ErrorKindUnsupportedDocument, generation.KindOf(err))
}

func TestTextRejectsBrokenPDF(t *testing.T) {
	_, err := Text(MimePDF, []byte("%PDF-1.4 truncated"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, generation.ErrUnsupportedDocument)
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, MimePDF, DetectMIME([]byte("%PDF-1.7\n%âãÏÓ\n1 0 obj")))
	assert.Equal(t, MimeText, DetectMIME([]byte("Plain resume text\nwith two lines")))
	assert.NotEqual(t, MimeText, DetectMIME([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}))
	assert.False(t, Supported(DetectMIME([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})))
}

func TestMimeFromNameAndExtension(t *testing.T) {
	assert.Equal(t, MimePDF, MimeFromName("CV.PDF"))
	assert.Equal(t, MimeDOCX, MimeFromName("resume.docx"))
	assert.Equal(t, MimeText, MimeFromName("notes.txt"))
	assert.Equal(t, "", MimeFromName("photo.png"))
	assert.Equal(t, ".docx", Extension(MimeDOCX))
	assert.True(t, Supported(MimePDF))
	assert.False(t, Supported("application/msword"))
}

func TestStripDocxMarkup(t *testing.T) {
	xml := `<w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p><w:p><w:r><w:t>R&amp;D Engineer</w:t></w:r></w:p></w:body>`
	assert.Equal(t, "Jane Doe\nR&D Engineer", stripDocxMarkup(xml))
}
