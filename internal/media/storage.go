package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/entity"
)

// Storage keeps the bytes of message attachments. Only the locator it returns
// is stored with the message.
type Storage interface {
	Upload(ctx context.Context, file io.Reader, filename, contentType string) (entity.Media, error)
	Delete(ctx context.Context, locator string) error
}

type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStorage(cloudinaryURL, folder string) (*CloudinaryStorage, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStorage) Upload(ctx context.Context, file io.Reader, filename, contentType string) (entity.Media, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	kind := KindFromContentType(contentType)
	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       s.folder,
		ResourceType: resourceTypeFor(kind),
	})
	if err != nil {
		return entity.Media{}, fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if result.Error.Message != "" {
		return entity.Media{}, fmt.Errorf("cloudinary upload rejected: %s", result.Error.Message)
	}

	return entity.Media{
		Kind:        kind,
		Locator:     result.SecureURL,
		DisplayName: filename,
	}, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, locator string) error {
	publicID, resourceType, ok := PublicIDFromLocator(locator)
	if !ok {
		return fmt.Errorf("not a cloudinary locator: %s", locator)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy failed: %w", err)
	}
	log.Debug().Str("public_id", publicID).Str("result", result.Result).Msg("media deleted")
	return nil
}

// DeleteAll hands every locator to storage without blocking the caller.
// Failures are logged and never reach the caller.
func DeleteAll(storage Storage, items []entity.Media) {
	if storage == nil || len(items) == 0 {
		return
	}
	go func() {
		for _, item := range items {
			if err := storage.Delete(context.Background(), item.Locator); err != nil {
				log.Warn().Err(err).Str("locator", item.Locator).Msg("failed to delete media")
			}
		}
	}()
}

func KindFromContentType(contentType string) entity.MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return entity.MediaImage
	case strings.HasPrefix(contentType, "video/"):
		return entity.MediaVideo
	default:
		return entity.MediaFile
	}
}

func resourceTypeFor(kind entity.MediaKind) string {
	switch kind {
	case entity.MediaImage:
		return "image"
	case entity.MediaVideo:
		return "video"
	default:
		return "raw"
	}
}

// PublicIDFromLocator extracts the public id and resource type from a
// delivery URL such as
// https://res.cloudinary.com/<cloud>/image/upload/v123/folder/name.jpg.
// Raw resources keep their extension as part of the public id.
func PublicIDFromLocator(locator string) (publicID, resourceType string, ok bool) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i+1] != "upload" {
			continue
		}
		switch parts[i] {
		case "image", "video", "raw":
			resourceType = parts[i]
		default:
			return "", "", false
		}

		rest := parts[i+2:]
		if len(rest) > 0 && isVersion(rest[0]) {
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return "", "", false
		}

		id := strings.Join(rest, "/")
		if resourceType != "raw" {
			id = strings.TrimSuffix(id, path.Ext(id))
		}
		return id, resourceType, true
	}
	return "", "", false
}

func isVersion(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
