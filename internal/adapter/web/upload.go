package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

// attachment reads an optional file field. A field with no file selected
// returns nil.
func attachment(r *http.Request, field string) (*domain.Attachment, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &domain.Attachment{
		Filename:    filepath.Base(hdr.Filename),
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
