package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pictora/pictora/internal/model"
)

// multipartMemory is how much of a multipart body is held in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

var (
	errUploadTooLarge   = errors.New("upload too large")
	errUnsupportedMedia = errors.New("unsupported media type")
	errMalformedForm    = errors.New("malformed form")
)

// uploadForm is a parsed multipart (or urlencoded) form with its optional file.
type uploadForm struct {
	r      *http.Request
	File   *model.Upload
	closer io.Closer
}

// Value returns a form field.
func (f *uploadForm) Value(key string) string {
	return f.r.FormValue(key)
}

// Close releases the file handle and any temporary files.
func (f *uploadForm) Close() {
	if f.closer != nil {
		_ = f.closer.Close()
	}
	if f.r.MultipartForm != nil {
		_ = f.r.MultipartForm.RemoveAll()
	}
}

// parseUploadForm reads the request form, limiting the body to maxBytes.
// A missing "file" part leaves File nil; a present one must be an image.
func parseUploadForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	form := &uploadForm{r: r}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, errUploadTooLarge
		case errors.Is(err, http.ErrNotMultipart):
			// urlencoded edits carry no file
			return form, nil
		default:
			return nil, errMalformedForm
		}
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil
	}
	if err != nil {
		form.Close()
		return nil, errMalformedForm
	}
	form.closer = file

	contentType, err := detectContentType(file, header)
	if err != nil {
		form.Close()
		return nil, errMalformedForm
	}
	if !strings.HasPrefix(contentType, "image/") {
		form.Close()
		return nil, errUnsupportedMedia
	}

	form.File = &model.Upload{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}
	return form, nil
}

// detectContentType trusts the part header unless it is missing or generic.
func detectContentType(file multipart.File, header *multipart.FileHeader) (string, error) {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct, nil
	}

	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// writeUploadError renders a parseUploadForm failure.
func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errUploadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Upload too large")
	case errors.Is(err, errUnsupportedMedia):
		writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Only image uploads are accepted")
	default:
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid form data")
	}
}
