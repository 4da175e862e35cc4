package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	catalogsvc "github.com/vastralabs/karkhana/internal/catalog/service"
	"github.com/vastralabs/karkhana/internal/inventory/entity"
	"github.com/vastralabs/karkhana/internal/inventory/repository"
)

// DocumentService swatch and spec-sheet storage on MinIO
type DocumentService struct {
	repo        *repository.InventoryRepository
	components  *catalogsvc.ComponentService
	minioClient *minio.Client
	bucketName  string
	logger      *zap.Logger
}

// NewDocumentService creates a document service
func NewDocumentService(
	repo *repository.InventoryRepository,
	components *catalogsvc.ComponentService,
	minioClient *minio.Client,
	bucketName string,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		repo:        repo,
		components:  components,
		minioClient: minioClient,
		bucketName:  bucketName,
		logger:      logger,
	}
}

// Upload stores the file in object storage and records it against the
// material. A fabric colour upload also becomes the colour's swatch.
func (s *DocumentService) Upload(ctx context.Context, userID, kind, materialID string, reader io.Reader, fileName string, fileSize int64, contentType string) (*entity.MaterialDocument, error) {
	if kind != entity.MaterialKindFabricColour && kind != entity.MaterialKindTrim {
		return nil, fmt.Errorf("%w: unknown material kind %q", ErrBadRequest, kind)
	}

	objectName := fmt.Sprintf("swatches/%s/%s%s", time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(fileName))

	if s.minioClient != nil {
		_, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return nil, fmt.Errorf("upload file: %w", err)
		}
	}

	doc := &entity.MaterialDocument{
		ID:           uuid.New().String()[:32],
		MaterialKind: kind,
		MaterialID:   materialID,
		FileName:     fileName,
		FilePath:     objectName,
		FileSize:     fileSize,
		MimeType:     contentType,
		UploadedBy:   userID,
	}
	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if kind == entity.MaterialKindFabricColour {
		if _, err := s.components.SetFabricColourSwatch(ctx, materialID, objectName); err != nil {
			return nil, fmt.Errorf("set swatch path: %w", err)
		}
	}

	s.logger.Info("material document uploaded",
		zap.String("document_id", doc.ID),
		zap.String("material_id", materialID),
		zap.String("object", objectName))
	return doc, nil
}

// List returns the documents of one material
func (s *DocumentService) List(ctx context.Context, kind, materialID string) ([]entity.MaterialDocument, error) {
	return s.repo.ListDocumentsByMaterial(ctx, kind, materialID)
}

// Download streams a stored document from object storage
func (s *DocumentService) Download(ctx context.Context, id string) (io.ReadCloser, *entity.MaterialDocument, error) {
	doc, err := s.repo.FindDocumentByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	if s.minioClient == nil {
		return nil, nil, fmt.Errorf("object storage not configured")
	}
	object, err := s.minioClient.GetObject(ctx, s.bucketName, doc.FilePath, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	return object, doc, nil
}
