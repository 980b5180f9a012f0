package document

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	content := []byte("%PDF-1.4 fake income certificate")

	att, err := Encode("income.pdf", bytes.NewReader(content))
	require.NoError(t, err)
	require.Equal(t, "income.pdf", att.FileName)
	require.True(t, strings.HasPrefix(att.Data, "data:"))

	decoded, mimeType, err := Decode(att)
	require.NoError(t, err)
	require.Equal(t, content, decoded)
	require.NotEmpty(t, mimeType)
}

func TestEncodeRejectsEmpty(t *testing.T) {
	_, err := Encode("blank.jpg", bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrEmpty)
}

func TestEncodeRejectsOversize(t *testing.T) {
	big := bytes.Repeat([]byte("a"), MaxFileSize+1)

	_, err := Encode("huge.jpg", bytes.NewReader(big))
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestEncodeAtLimit(t *testing.T) {
	exact := bytes.Repeat([]byte("a"), MaxFileSize)

	att, err := Encode("limit.jpg", bytes.NewReader(exact))
	require.NoError(t, err)

	decoded, _, err := Decode(att)
	require.NoError(t, err)
	require.Len(t, decoded, MaxFileSize)
}

func TestValidateAcceptsEncodedAttachment(t *testing.T) {
	att, err := Encode("aadhar.png", bytes.NewReader([]byte("\x89PNG\r\n\x1a\nfake")))
	require.NoError(t, err)

	require.NoError(t, Validate(att))
}

func TestValidateRejectsInlinedJunk(t *testing.T) {
	bad := &models.Attachment{FileName: "a.png", Data: "not-a-data-uri"}
	require.ErrorIs(t, Validate(bad), ErrNotDataURI)

	require.ErrorIs(t, Validate(&models.Attachment{}), ErrEmpty)
}

func TestValidateRejectsOversizePayload(t *testing.T) {
	big := bytes.Repeat([]byte("a"), MaxFileSize+1)

	oversize := &models.Attachment{
		FileName: "huge.jpg",
		Data:     "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(big),
	}

	require.ErrorIs(t, Validate(oversize), ErrTooLarge)
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	_, _, err := Decode(nil)
	require.ErrorIs(t, err, ErrEmpty)

	bad := &models.Attachment{FileName: "x.jpg", Data: "not a data uri"}
	_, _, err = Decode(bad)
	require.ErrorIs(t, err, ErrNotDataURI)

	garbled := &models.Attachment{FileName: "x.jpg", Data: "data:image/jpeg;base64,!!!"}
	_, _, err = Decode(garbled)
	require.Error(t, err)
}
