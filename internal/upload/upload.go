package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ondrasimku/vision-service/internal/domain"
)

// FieldName is the multipart field carrying the image.
const FieldName = "file"

// ValidationError is a client mistake whose message is returned verbatim in
// the JSON error body.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

var (
	ErrNoFilePart     = &ValidationError{msg: "No file part"}
	ErrNoSelectedFile = &ValidationError{msg: "No selected file"}
	ErrInvalidFormat  = &ValidationError{msg: "Invalid file format. Please upload an image."}
	ErrTooLarge       = &ValidationError{msg: "File too large"}
)

// Extract returns the uploaded file header for FieldName.
//
// A browser that submits the form without choosing a file still sends the
// part, with an empty filename. The multipart reader files such parts under
// Value instead of File, which is how the two error cases are told apart.
func Extract(form *multipart.Form) (*multipart.FileHeader, error) {
	if form == nil {
		return nil, ErrNoFilePart
	}

	if files := form.File[FieldName]; len(files) > 0 {
		if files[0].Filename == "" {
			return nil, ErrNoSelectedFile
		}
		return files[0], nil
	}

	if _, ok := form.Value[FieldName]; ok {
		return nil, ErrNoSelectedFile
	}
	return nil, ErrNoFilePart
}

// Read validates the header and loads the file into memory.
func Read(fh *multipart.FileHeader, maxSize int64) (domain.Upload, error) {
	if !Allowed(fh.Filename) {
		return domain.Upload{}, ErrInvalidFormat
	}

	filename := StoredName(fh.Filename)

	if maxSize > 0 && fh.Size > maxSize {
		return domain.Upload{}, ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return domain.Upload{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	var r io.Reader = src
	if maxSize > 0 {
		r = io.LimitReader(src, maxSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return domain.Upload{}, ErrTooLarge
	}

	return domain.Upload{
		OriginalName: fh.Filename,
		Filename:     filename,
		ContentType:  ContentType(fh.Header.Get("Content-Type"), filename, data),
		Data:         data,
	}, nil
}

// StoredName is the name an accepted upload is saved under. When sanitizing
// strips the stem or the extension, as with "фото.jpg" or ".png", a random
// name with the client's extension is used instead.
func StoredName(filename string) string {
	name := SecureFilename(filename)
	if Allowed(name) {
		return name
	}
	return uuid.NewString() + "." + Extension(filename)
}

// ContentType picks the image MIME type from the part header, the extension,
// or the content itself, in that order.
func ContentType(header, filename string, data []byte) string {
	if strings.HasPrefix(header, "image/") {
		return header
	}

	switch Extension(filename) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	}

	return http.DetectContentType(data)
}
