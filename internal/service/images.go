package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/imagestore"
	"github.com/octobees/business-directory/api/internal/repository"
)

// ImageKind says where an uploaded image is attached on the business.
type ImageKind string

const (
	ImageLogo    ImageKind = "logo"
	ImageCover   ImageKind = "cover"
	ImageGallery ImageKind = "gallery"
)

const (
	defaultMaxImageBytes int64 = 5 << 20
	thumbnailWidth             = 200
)

var imageExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ParseImageKind validates the upload type. An empty value means cover.
func ParseImageKind(value string) (ImageKind, error) {
	switch ImageKind(strings.ToLower(strings.TrimSpace(value))) {
	case ImageLogo:
		return ImageLogo, nil
	case ImageCover, "":
		return ImageCover, nil
	case ImageGallery:
		return ImageGallery, nil
	default:
		return "", ValidationError{Message: fmt.Sprintf("unknown image type %q: use logo, cover or gallery", value)}
	}
}

// ImagesService stores uploaded images and attaches them to businesses.
type ImagesService struct {
	repo     repository.BusinessesRepository
	store    imagestore.Store
	maxBytes int64
}

// NewImagesService builds an ImagesService. maxBytes <= 0 uses 5 MiB.
func NewImagesService(repo repository.BusinessesRepository, store imagestore.Store, maxBytes int64) *ImagesService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &ImagesService{repo: repo, store: store, maxBytes: maxBytes}
}

// Upload validates a png or jpeg image, stores it with a thumbnail and
// records its URL on the business.
func (s *ImagesService) Upload(ctx context.Context, businessID uuid.UUID, kind ImageKind, filename string, r io.Reader) (dto.ImageUploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := imageExtensions[ext]
	if !ok {
		return dto.ImageUploadResponse{}, ValidationError{Message: "only .png, .jpg and .jpeg images are allowed"}
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return dto.ImageUploadResponse{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return dto.ImageUploadResponse{}, ValidationError{Message: fmt.Sprintf("image exceeds %d bytes", s.maxBytes)}
	}
	if sniffed := http.DetectContentType(data); sniffed != contentType {
		return dto.ImageUploadResponse{}, ValidationError{Message: fmt.Sprintf("file content is %s, not %s", sniffed, contentType)}
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return dto.ImageUploadResponse{}, ValidationError{Message: "image could not be decoded"}
	}

	business, err := s.repo.FindByID(ctx, businessID)
	if err != nil {
		return dto.ImageUploadResponse{}, err
	}

	key := path.Join("businesses", businessID.String(), fmt.Sprintf("%s-%s%s", kind, uuid.NewString(), ext))
	url, err := s.store.Put(ctx, key, contentType, data)
	if err != nil {
		return dto.ImageUploadResponse{}, err
	}

	var thumb bytes.Buffer
	if err := imaging.Encode(&thumb, imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos), imaging.JPEG); err != nil {
		return dto.ImageUploadResponse{}, fmt.Errorf("encode thumbnail: %w", err)
	}
	thumbKey := path.Join(path.Dir(key), "thumbnails", strings.TrimSuffix(path.Base(key), ext)+".jpg")
	thumbURL, err := s.store.Put(ctx, thumbKey, "image/jpeg", thumb.Bytes())
	if err != nil {
		return dto.ImageUploadResponse{}, err
	}

	switch kind {
	case ImageLogo:
		business.Logo = url
	case ImageCover:
		business.CoverPhoto = url
	default:
		business.Images = append(business.Images, url)
	}
	updated, err := s.repo.UpdateByID(ctx, business)
	if err != nil {
		return dto.ImageUploadResponse{}, err
	}
	return dto.ImageUploadResponse{URL: url, ThumbnailURL: thumbURL, Type: string(kind), Business: updated}, nil
}
