package security

import (
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

// AllowedExtensions is the fixed set of accepted file extensions, in the
// order they are listed in user-facing error messages.
var AllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "pdf", "tiff", "bmp"}

// allowedMIMETypes is the fixed set of content types accepted after sniffing.
var allowedMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/gif":       {},
	"image/tiff":      {},
	"image/bmp":       {},
	"application/pdf": {},
}

// DefaultMaxFileSize caps uploads at 16 MiB unless configured otherwise.
const DefaultMaxFileSize = 16 * 1024 * 1024

// sniffLen is how many leading bytes are inspected for magic numbers.
const sniffLen = 1024

// Upload is an inbound file candidate: raw content plus what the client
// declared about it. The reader is positioned at the start of the content.
type Upload struct {
	Filename    string
	ContentType string
	Reader      io.ReadSeeker
}

// FileInfo describes an upload that passed validation.
type FileInfo struct {
	Filename string
	Size     int64
}

// ValidationError carries the user-facing message for a rejected upload.
// The message is safe to return in an HTTP body.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SniffFunc infers a MIME type from the leading bytes of a file. A nil
// SniffFunc, or one that returns an error, skips the content check entirely:
// the sniffer is an optional defense, not a gatekeeper.
type SniffFunc func(head []byte) (string, error)

// DetectContentType is the default SniffFunc, backed by magic-number
// detection.
func DetectContentType(head []byte) (string, error) {
	return mimetype.Detect(head).String(), nil
}

// Validator checks inbound uploads against the extension, size and content
// allow-lists.
type Validator struct {
	MaxSize int64
	Sniff   SniffFunc
	logger  logrus.FieldLogger
}

// NewValidator returns a Validator with the given size cap. A maxSize of zero
// falls back to DefaultMaxFileSize.
func NewValidator(maxSize int64, logger logrus.FieldLogger) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Validator{
		MaxSize: maxSize,
		Sniff:   DetectContentType,
		logger:  logger,
	}
}

// Validate runs the ordered checks against the candidate, short-circuiting on
// the first failure. The candidate's read cursor is restored to the start on
// every path so downstream code can re-read the full content.
func (v *Validator) Validate(u *Upload) (*FileInfo, error) {
	if u == nil || u.Filename == "" || u.Reader == nil {
		return nil, &ValidationError{Message: "Arquivo não fornecido"}
	}

	filename := SanitizeFilename(strings.ToLower(u.Filename))
	if filename == "" || !strings.Contains(filename, ".") {
		return nil, &ValidationError{Message: "Nome de arquivo inválido"}
	}

	ext := filename[strings.LastIndex(filename, ".")+1:]
	if !extensionAllowed(ext) {
		return nil, &ValidationError{
			Message: fmt.Sprintf("Extensão não permitida. Permitidas: %s", strings.Join(AllowedExtensions, ", ")),
		}
	}

	size, err := u.Reader.Seek(0, io.SeekEnd)
	if err != nil {
		v.logger.WithError(err).Error("file validation error")
		return nil, &ValidationError{Message: "Erro na validação do arquivo"}
	}
	if _, err := u.Reader.Seek(0, io.SeekStart); err != nil {
		v.logger.WithError(err).Error("file validation error")
		return nil, &ValidationError{Message: "Erro na validação do arquivo"}
	}

	if size > v.MaxSize {
		return nil, &ValidationError{
			Message: fmt.Sprintf("Arquivo muito grande. Máximo: %dMB", v.MaxSize/(1024*1024)),
		}
	}
	if size == 0 {
		return nil, &ValidationError{Message: "Arquivo vazio"}
	}

	if v.Sniff != nil {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(u.Reader, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			v.logger.WithError(err).Error("file validation error")
			return nil, &ValidationError{Message: "Erro na validação do arquivo"}
		}
		if _, err := u.Reader.Seek(0, io.SeekStart); err != nil {
			v.logger.WithError(err).Error("file validation error")
			return nil, &ValidationError{Message: "Erro na validação do arquivo"}
		}

		mime, err := v.Sniff(head[:n])
		if err != nil {
			// Fail open: the sniffer is optional and must not block uploads
			// when it cannot run.
			v.logger.WithError(err).Warn("could not determine MIME type")
		} else if _, ok := allowedMIMETypes[mime]; !ok {
			return nil, &ValidationError{
				Message: fmt.Sprintf("Tipo de arquivo não permitido: %s", mime),
			}
		}
	}

	return &FileInfo{Filename: filename, Size: size}, nil
}

func extensionAllowed(ext string) bool {
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// unsafeFilenameChars matches any run of characters outside the safe set for
// object names.
var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename strips path components and collapses unsafe characters so
// the result can be used as a GCS object name component.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	return name
}
