package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/skillshare/skillshare-backend/internal/service"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

var errUploadTooLarge = errors.New("upload too large")

// parseForm caps the body at maxBytes and parses it as multipart or
// urlencoded depending on its content type.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errUploadTooLarge
	}
	return err
}

// formUpload returns the file posted under field, or nil when there is none.
// The caller closes the returned file.
func formUpload(r *http.Request, field string) (*service.Upload, multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	return &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, file, nil
}

// formValue returns the value for key, or nil when the client did not send it.
func formValue(r *http.Request, key string) *string {
	values := r.Form[key]
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func writeFormError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUploadTooLarge) {
		http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "Invalid form body", http.StatusBadRequest)
}
