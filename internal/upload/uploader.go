// Package upload stores complaint photos on the image CDN. A failed upload
// aborts complaint creation entirely: a complaint without an image is not a
// valid entity.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

// Uploader is the image storage collaborator contract.
type Uploader interface {
	// Upload stores the blob under a destination derived from complaintID and
	// returns a publicly fetchable URL plus a deletable reference.
	Upload(ctx context.Context, complaintID, mimeType string, data []byte) (url, path string, err error)
	// Delete removes a previously uploaded image by its reference.
	Delete(ctx context.Context, path string) error
}

// CloudinaryUploader uploads through Cloudinary's unsigned upload endpoint.
type CloudinaryUploader struct {
	CloudName    string
	UploadPreset string
	Client       *http.Client
}

// NewCloudinaryUploader builds an uploader for the given cloud.
func NewCloudinaryUploader(cloudName, uploadPreset string) *CloudinaryUploader {
	return &CloudinaryUploader{
		CloudName:    cloudName,
		UploadPreset: uploadPreset,
		Client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload posts the image as multipart form data.
func (u *CloudinaryUploader) Upload(ctx context.Context, complaintID, mimeType string, data []byte) (string, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", "photo")
	if err != nil {
		return "", "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", "", err
	}
	if err := w.WriteField("upload_preset", u.UploadPreset); err != nil {
		return "", "", err
	}
	if err := w.WriteField("folder", "complaints/"+complaintID); err != nil {
		return "", "", err
	}
	if err := w.Close(); err != nil {
		return "", "", err
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", u.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.Client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("image upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("image upload failed: status %d", resp.StatusCode)
	}

	var payload struct {
		SecureURL string `json:"secure_url"`
		PublicID  string `json:"public_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", fmt.Errorf("image upload failed: %w", err)
	}
	return payload.SecureURL, payload.PublicID, nil
}

// Delete removes an uploaded image. Cloudinary's unsigned flow has no public
// delete API, so this goes through the destroy endpoint with the reference
// token returned at upload time.
func (u *CloudinaryUploader) Delete(ctx context.Context, path string) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("public_id", path); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/destroy", u.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.Client.Do(req)
	if err != nil {
		return fmt.Errorf("image delete failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image delete failed: status %d", resp.StatusCode)
	}
	return nil
}
