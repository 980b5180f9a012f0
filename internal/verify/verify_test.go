package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyDocumentRelaysVerdict(t *testing.T) {
	var gotName string
	var gotMime string
	var gotBlob []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotName = r.FormValue("expected_name")
		gotMime = r.FormValue("mime_type")

		f, _, err := r.FormFile("document")
		require.NoError(t, err)
		defer f.Close()

		buf := make([]byte, 64)
		n, _ := f.Read(buf)
		gotBlob = buf[:n]

		json.NewEncoder(w).Encode(OCRResult{
			IsVerified:    true,
			ExtractedText: "RAJESH KUMAR",
		})
	}))
	defer server.Close()

	client := NewOCRClient(server.URL)

	result, err := client.VerifyDocument(context.Background(), []byte("fake-image"), "image/png", "RAJESH KUMAR")
	require.NoError(t, err)
	require.True(t, result.IsVerified)
	require.Equal(t, "RAJESH KUMAR", result.ExtractedText)

	require.Equal(t, "RAJESH KUMAR", gotName)
	require.Equal(t, "image/png", gotMime)
	require.Equal(t, []byte("fake-image"), gotBlob)
}

func TestVerifyDocumentUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewOCRClient(server.URL)

	_, err := client.VerifyDocument(context.Background(), []byte("fake-image"), "image/png", "RAJESH KUMAR")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestVerifyDocumentUnconfigured(t *testing.T) {
	client := NewOCRClient("")

	_, err := client.VerifyDocument(context.Background(), []byte("fake-image"), "image/png", "RAJESH KUMAR")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestAddressCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var address Address
		require.NoError(t, json.NewDecoder(r.Body).Decode(&address))
		require.Equal(t, "Bihar", address.State)
		require.Equal(t, "800001", address.PinCode)

		json.NewEncoder(w).Encode(AddressResult{
			Valid:   true,
			Message: "Address matches pin code records",
		})
	}))
	defer server.Close()

	checker := NewAddressChecker(server.URL)

	result, err := checker.Check(context.Background(), Address{
		State:    "Bihar",
		District: "Patna",
		PinCode:  "800001",
		Address:  "12 Gandhi Maidan Road",
	})
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "Address matches pin code records", result.Message)
}

func TestAddressCheckUnconfigured(t *testing.T) {
	checker := NewAddressChecker("")

	_, err := checker.Check(context.Background(), Address{State: "Bihar"})
	require.ErrorIs(t, err, ErrUnavailable)
}
