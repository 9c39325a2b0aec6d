package utils

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const invoiceFolder = "invoices"

// DocumentStorage uploads rendered invoice documents to Cloudinary.
type DocumentStorage struct {
	cld *cloudinary.Cloudinary
}

func NewDocumentStorage(cloudName, apiKey, apiSecret string) (*DocumentStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %w", err)
	}
	return &DocumentStorage{cld: cld}, nil
}

// UploadInvoiceDocument stores a document under invoices/<publicID>, replacing
// any earlier upload with the same id, and returns its secure URL.
func (d *DocumentStorage) UploadInvoiceDocument(ctx context.Context, doc io.Reader, publicID string) (string, error) {
	resp, err := d.cld.Upload.Upload(ctx, doc, uploader.UploadParams{
		Folder:       invoiceFolder,
		PublicID:     publicID,
		ResourceType: "raw",
		Overwrite:    api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload error: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// DeleteInvoiceDocument removes a document uploaded with UploadInvoiceDocument.
func (d *DocumentStorage) DeleteInvoiceDocument(ctx context.Context, publicID string) error {
	_, err := d.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     invoiceFolder + "/" + publicID,
		ResourceType: "raw",
	})
	if err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	return nil
}
