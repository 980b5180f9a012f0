package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// ErrUnavailable is returned when no upstream endpoint is configured.
// Handlers turn it into a clean "verification unavailable" response
// instead of failing the request.
var ErrUnavailable = errors.New("verification service is not configured")

// OCRClient proxies document images to the OCR verification service.
type OCRClient struct {
	endpoint string
	client   *http.Client
}

func NewOCRClient(endpoint string) *OCRClient {
	return &OCRClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

type OCRResult struct {
	IsVerified    bool   `json:"is_verified"`
	ExtractedText string `json:"extracted_text"`
}

// VerifyDocument posts the document blob and the name it should carry
// to the OCR service and relays the verdict.
func (c *OCRClient) VerifyDocument(ctx context.Context, blob []byte, mimeType, expectedName string) (*OCRResult, error) {
	if c.endpoint == "" {
		return nil, ErrUnavailable
	}

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("document", "document")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(blob); err != nil {
		return nil, err
	}

	if err := writer.WriteField("mime_type", mimeType); err != nil {
		return nil, err
	}
	if err := writer.WriteField("expected_name", expectedName); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ocr service responded with status %d", resp.StatusCode)
	}

	var result OCRResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// AddressChecker asks the address verification service whether a
// state/district/pin combination is plausible.
type AddressChecker struct {
	endpoint string
	client   *http.Client
}

func NewAddressChecker(endpoint string) *AddressChecker {
	return &AddressChecker{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

type Address struct {
	State    string `json:"state"`
	District string `json:"district"`
	PinCode  string `json:"pin_code"`
	Address  string `json:"address"`
}

type AddressResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

func (c *AddressChecker) Check(ctx context.Context, address Address) (*AddressResult, error) {
	if c.endpoint == "" {
		return nil, ErrUnavailable
	}

	payload, err := json.Marshal(address)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("address service responded with status %d", resp.StatusCode)
	}

	var result AddressResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}
