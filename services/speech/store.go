package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// LocalStore writes audio files into a directory served under /static.
type LocalStore struct {
	Dir     string
	BaseURL string
}

// NewLocalStore ensures the directory exists and returns the store.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes the file and returns its public URL.
func (s *LocalStore) Put(_ context.Context, filename string, data []byte) (string, error) {
	path := filepath.Join(s.Dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	return s.BaseURL + "/static/" + filename, nil
}

// CloudinaryStore uploads audio to Cloudinary and plays back the returned
// secure URL. Cloudinary files audio under the video resource type.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStore initializes the Cloudinary-backed audio store.
func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

// Put uploads the audio bytes and returns the secure delivery URL.
func (s *CloudinaryStore) Put(ctx context.Context, filename string, data []byte) (string, error) {
	publicID := strings.TrimSuffix(filename, filepath.Ext(filename))
	resp, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		Folder:       "tts",
		ResourceType: "video",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary returned no URL")
	}
	return resp.SecureURL, nil
}
