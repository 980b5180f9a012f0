package file

import (
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type Uploader interface {
	UploadDataURI(ctx context.Context, dataURI, publicID string) (string, error)
}

type FileUploader struct {
	cloudName string
	apiKey    string
	apiSecret string
}

func New(cloudName, apiKey, apiSecret string) *FileUploader {
	return &FileUploader{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// UploadDataURI sends a base64 data URI straight to cloudinary, which
// accepts it as a file source, and returns the hosted URL.
func (f *FileUploader) UploadDataURI(ctx context.Context, dataURI, publicID string) (string, error) {
	cld, err := cloudinary.NewFromParams(f.cloudName, f.apiKey, f.apiSecret)
	if err != nil {
		return "", err
	}

	uploadResult, err := cld.Upload.Upload(ctx, dataURI, uploader.UploadParams{
		PublicID: publicID,
		Folder:   "applications",
	})
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
