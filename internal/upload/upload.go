package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hmdgt/boletim/internal/remote"
)

// Folders the upstream pipeline watches and writes.
const (
	UploadsFolder      = "uploads/"
	PreprocessedFolder = "preprocessadas/"
)

// Uploader pushes boletim photos into the uploads/ folder of the remote
// repository, where the OCR pipeline picks them up.
type Uploader struct {
	client *remote.Client
	now    func() time.Time
}

// NewUploader creates an uploader over the given remote client.
func NewUploader(client *remote.Client) *Uploader {
	return &Uploader{
		client: client,
		now:    time.Now,
	}
}

// Upload reads an image file and creates it remotely under a generated
// name. Uploads are always creations, so no sha accompanies the write.
// Returns the generated remote filename.
func (u *Uploader) Upload(ctx context.Context, sourcePath string) (string, error) {
	if !u.client.HasToken() {
		return "", remote.ErrNoToken
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", sourcePath, err)
	}

	name := fmt.Sprintf("foto_%d.png", u.now().UnixMilli())
	path := UploadsFolder + name

	err = u.client.WriteFile(ctx, path, data, "",
		fmt.Sprintf("Upload automático: %s", name))
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}

	return name, nil
}

// PreprocessedPaths returns the remote paths of the binarized and
// enhanced variants the pipeline derives from an uploaded image.
func PreprocessedPaths(image string) (binary, enhanced string) {
	base := strings.TrimSuffix(image, filepath.Ext(image))
	return PreprocessedFolder + base + "_binary.png",
		PreprocessedFolder + base + "_enhanced.png"
}
