// Package papers stores uploaded research PDFs: bytes in a blob store,
// metadata in the database.
package papers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"agropulse/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("paper not found")
	ErrInvalidPDF = errors.New("invalid pdf")
	ErrTooLarge   = errors.New("paper exceeds size limit")
)

// FieldError names a missing or malformed upload field.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s is required", e.Field) }

// DefaultMaxSize caps uploads at 20 MiB.
const DefaultMaxSize = 20 << 20

// Service is safe for concurrent use.
type Service struct {
	db        *gorm.DB
	store     BlobStore
	validator Validator
	maxSize   int64
}

// NewService wires storage. A nil validator uses pdfcpu.
func NewService(db *gorm.DB, store BlobStore, validator Validator, maxSize int64) *Service {
	if validator == nil {
		validator = PDFValidator{}
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Service{db: db, store: store, validator: validator, maxSize: maxSize}
}

// MaxSize is the largest accepted upload in bytes.
func (s *Service) MaxSize() int64 { return s.maxSize }

// Upload is one submitted paper.
type Upload struct {
	Title    string
	Topic    string
	Uploader string
	Filename string
	Data     []byte
}

// Save validates the PDF, stores it under a fresh key and records metadata.
// The blob is removed again when the metadata insert fails.
func (s *Service) Save(ctx context.Context, up Upload) (*models.ResearchPaper, error) {
	up.Title = strings.TrimSpace(up.Title)
	up.Topic = strings.TrimSpace(up.Topic)
	up.Uploader = strings.TrimSpace(up.Uploader)
	if up.Title == "" {
		return nil, &FieldError{Field: "title"}
	}
	if len(up.Data) == 0 {
		return nil, &FieldError{Field: "file"}
	}
	if int64(len(up.Data)) > s.maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(up.Data), s.maxSize)
	}
	pages, err := s.validator.Validate(up.Data)
	if err != nil {
		return nil, err
	}

	filename := strings.TrimSpace(up.Filename)
	if filename != "" {
		filename = filepath.Base(filename)
	}

	key := NewKey()
	if err := s.store.Put(ctx, key, up.Data, "application/pdf"); err != nil {
		return nil, fmt.Errorf("store paper: %w", err)
	}
	paper := &models.ResearchPaper{
		Title:    up.Title,
		Topic:    up.Topic,
		Uploader: up.Uploader,
		Filename: filename,
		BlobKey:  key,
		Storage:  s.store.Name(),
		Size:     int64(len(up.Data)),
		Pages:    pages,
	}
	if err := s.db.WithContext(ctx).Create(paper).Error; err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Printf("[papers] orphaned blob %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("save paper metadata: %w", err)
	}
	log.Printf("[papers] saved %q (%d pages, %d bytes) as %s", paper.Title, pages, paper.Size, key)
	return paper, nil
}

// List returns papers newest first, filtered by a case-insensitive substring of
// title or topic when query is set.
func (s *Service) List(ctx context.Context, query string) ([]models.ResearchPaper, error) {
	var papers []models.ResearchPaper
	tx := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(topic) LIKE ?", like, like)
	}
	if err := tx.Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	if papers == nil {
		papers = []models.ResearchPaper{}
	}
	return papers, nil
}

// Get loads metadata by id.
func (s *Service) Get(ctx context.Context, id uint) (*models.ResearchPaper, error) {
	var paper models.ResearchPaper
	err := s.db.WithContext(ctx).First(&paper, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load paper %d: %w", id, err)
	}
	return &paper, nil
}

// Content returns the metadata and bytes of a paper.
func (s *Service) Content(ctx context.Context, id uint) (*models.ResearchPaper, []byte, error) {
	paper, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.store.Get(ctx, paper.BlobKey)
	if err != nil {
		return nil, nil, err
	}
	return paper, data, nil
}

// Base64 returns the paper encoded for inline embedding.
func (s *Service) Base64(ctx context.Context, id uint) (string, error) {
	_, data, err := s.Content(ctx, id)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Count returns the number of stored papers.
func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ResearchPaper{}).Count(&n).Error
	return n, err
}

// Clear deletes every paper and its blob. Blob failures are logged and do not
// stop the sweep.
func (s *Service) Clear(ctx context.Context) (int, error) {
	var papers []models.ResearchPaper
	if err := s.db.WithContext(ctx).Find(&papers).Error; err != nil {
		return 0, fmt.Errorf("list papers: %w", err)
	}
	removed := 0
	for _, p := range papers {
		if err := s.store.Delete(ctx, p.BlobKey); err != nil {
			log.Printf("[papers] delete blob %s: %v", p.BlobKey, err)
		}
		if err := s.db.WithContext(ctx).Delete(&models.ResearchPaper{}, p.ID).Error; err != nil {
			return removed, fmt.Errorf("delete paper %d: %w", p.ID, err)
		}
		removed++
	}
	log.Printf("[papers] cleared %d papers", removed)
	return removed, nil
}
