package security

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes returns content that sniffs as image/png.
func pngBytes(size int) []byte {
	header := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	if size < len(header) {
		return header[:size]
	}
	return append(header, bytes.Repeat([]byte{0x00}, size-len(header))...)
}

func jpegBytes(size int) []byte {
	header := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	if size < len(header) {
		return header[:size]
	}
	return append(header, bytes.Repeat([]byte{0x00}, size-len(header))...)
}

func upload(name string, content []byte) *Upload {
	return &Upload{Filename: name, Reader: bytes.NewReader(content)}
}

func TestValidateRejectsMissingFile(t *testing.T) {
	v := NewValidator(0, nil)

	_, err := v.Validate(nil)
	require.Error(t, err)
	assert.Equal(t, "Arquivo não fornecido", err.Error())

	_, err = v.Validate(upload("", pngBytes(64)))
	require.Error(t, err)
	assert.Equal(t, "Arquivo não fornecido", err.Error())
}

func TestValidateRejectsNameWithoutExtension(t *testing.T) {
	v := NewValidator(0, nil)

	_, err := v.Validate(upload("README", pngBytes(64)))
	require.Error(t, err)
	assert.Equal(t, "Nome de arquivo inválido", err.Error())
}

func TestValidateRejectsDisallowedExtension(t *testing.T) {
	v := NewValidator(0, nil)

	_, err := v.Validate(upload("invoice.exe", pngBytes(64)))
	require.Error(t, err)

	msg := err.Error()
	for _, ext := range AllowedExtensions {
		assert.Contains(t, msg, ext)
	}
	assert.NotContains(t, msg, "exe,")
	assert.Contains(t, msg, "Extensão não permitida")
}

func TestValidateRejectsEmptyFile(t *testing.T) {
	v := NewValidator(0, nil)

	_, err := v.Validate(upload("invoice.png", nil))
	require.Error(t, err)
	assert.Equal(t, "Arquivo vazio", err.Error())
}

func TestValidateRejectsOversizedFile(t *testing.T) {
	v := NewValidator(1<<20, nil)

	_, err := v.Validate(upload("invoice.png", pngBytes(1<<20+1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Arquivo muito grande")
	assert.Contains(t, err.Error(), "1MB")
}

func TestValidateRejectsDisallowedContentType(t *testing.T) {
	v := NewValidator(0, nil)

	// .png name, plain-text content: the sniffer wins over the extension.
	_, err := v.Validate(upload("invoice.png", []byte("definitely not an image, just some text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Tipo de arquivo não permitido")
}

func TestValidateFailsOpenWhenSnifferErrors(t *testing.T) {
	v := NewValidator(0, nil)
	v.Sniff = func([]byte) (string, error) {
		return "", errors.New("detector unavailable")
	}

	info, err := v.Validate(upload("invoice.png", []byte("not an image at all")))
	require.NoError(t, err)
	assert.Equal(t, "invoice.png", info.Filename)
}

func TestValidateSkipsSniffingWhenDisabled(t *testing.T) {
	v := NewValidator(0, nil)
	v.Sniff = nil

	_, err := v.Validate(upload("invoice.png", []byte("not an image at all")))
	require.NoError(t, err)
}

func TestValidateAcceptsValidUpload(t *testing.T) {
	v := NewValidator(0, nil)

	info, err := v.Validate(upload("PHOTO.JPG", jpegBytes(2048)))
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", info.Filename)
	assert.Equal(t, int64(2048), info.Size)
}

func TestValidateStripsPathComponents(t *testing.T) {
	v := NewValidator(0, nil)

	info, err := v.Validate(upload(`..\..\etc\evil.png`, pngBytes(128)))
	require.NoError(t, err)
	assert.Equal(t, "evil.png", info.Filename)

	info, err = v.Validate(upload("/var/tmp/../evil two.png", pngBytes(128)))
	require.NoError(t, err)
	assert.Equal(t, "evil_two.png", info.Filename)
}

func TestValidateRestoresReadCursor(t *testing.T) {
	v := NewValidator(0, nil)
	content := pngBytes(4096)
	reader := bytes.NewReader(content)

	_, err := v.Validate(&Upload{Filename: "invoice.png", Reader: reader})
	require.NoError(t, err)

	pos, err := reader.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos, "validator must leave the cursor at the start")

	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, rest)
}

func TestValidateRestoresCursorOnFailure(t *testing.T) {
	v := NewValidator(0, nil)
	reader := bytes.NewReader([]byte("plain text pretending to be a png"))

	_, err := v.Validate(&Upload{Filename: "invoice.png", Reader: reader})
	require.Error(t, err)

	pos, err := reader.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"invoice.png", "invoice.png"},
		{"nota fiscal 01.pdf", "nota_fiscal_01.pdf"},
		{"../../etc/passwd.png", "passwd.png"},
		{`C:\Users\x\doc.jpg`, "doc.jpg"},
		{".hidden.png", "hidden.png"},
		{"acentuação.png", "acentua_o.png"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilenameNeverKeepsSeparators(t *testing.T) {
	for _, in := range []string{"a/b/c.png", `a\b\c.png`, "//c.png", `\\share\c.png`} {
		out := SanitizeFilename(in)
		assert.False(t, strings.ContainsAny(out, `/\`), "sanitized %q -> %q still has separators", in, out)
	}
}
