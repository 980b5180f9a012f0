// Package document converts uploaded files to and from the
// transportable data-URI form stored inside an application record.
package document

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nyaaypath/nyaaypath/internal/models"
)

// MaxFileSize caps a single attachment at 5 MB, matching the limit the
// form advertises to applicants.
const MaxFileSize = 5 << 20

var (
	ErrTooLarge   = fmt.Errorf("document exceeds the %dMB limit", MaxFileSize>>20)
	ErrEmpty      = errors.New("document is empty")
	ErrNotDataURI = errors.New("document payload is not a data URI")
)

// Encode reads one uploaded file into an Attachment. Oversized and
// empty uploads are rejected here so they surface as validation
// errors, never as stored junk.
func Encode(fileName string, r io.Reader) (*models.Attachment, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}

	if len(content) == 0 {
		return nil, ErrEmpty
	}
	if len(content) > MaxFileSize {
		return nil, ErrTooLarge
	}

	mimeType := http.DetectContentType(content)

	return &models.Attachment{
		FileName: fileName,
		Data:     "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(content),
	}, nil
}

// Validate checks an attachment that arrived already encoded, as JSON
// rather than a file upload, and so never passed through Encode: the
// payload must be a well-formed data URI and the decoded content must
// fit the size limit.
func Validate(a *models.Attachment) error {
	content, _, err := Decode(a)
	if err != nil {
		return err
	}

	if len(content) > MaxFileSize {
		return ErrTooLarge
	}

	return nil
}

// Decode recovers the raw bytes and mime type from a stored
// attachment, for handing to the verification boundary.
func Decode(a *models.Attachment) ([]byte, string, error) {
	if a.IsZero() {
		return nil, "", ErrEmpty
	}

	rest, ok := strings.CutPrefix(a.Data, "data:")
	if !ok {
		return nil, "", ErrNotDataURI
	}

	mimeType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return nil, "", ErrNotDataURI
	}

	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode document: %w", err)
	}

	return content, mimeType, nil
}
