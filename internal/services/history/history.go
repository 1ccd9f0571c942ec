// Package history keeps an audit trail of crop recommendations.
package history

import (
	"context"
	"fmt"

	"agropulse/internal/models"
	"agropulse/internal/services/cropadvisor"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Record persists one recommendation with its inputs.
func (s *Store) Record(ctx context.Context, sample cropadvisor.Sample, res cropadvisor.RecommendationResult) (*models.RecommendationRecord, error) {
	rec := &models.RecommendationRecord{
		Status:       string(res.Status),
		CropName:     res.CropName,
		LabelID:      res.Metadata.LabelID,
		Confidence:   res.ConfidenceScore,
		IsReliable:   res.Metadata.IsReliable,
		ModelVersion: res.ModelVersion,
		Engine:       res.Metadata.Engine,
		Source:       res.DescriptionSource,
		Nitrogen:     value(sample.Nitrogen),
		Phosphorus:   value(sample.Phosphorus),
		Potassium:    value(sample.Potassium),
		Temperature:  value(sample.Temperature),
		Humidity:     value(sample.Humidity),
		PH:           value(sample.PH),
		Rainfall:     value(sample.Rainfall),
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("record recommendation: %w", err)
	}
	return rec, nil
}

// Recent returns the latest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.RecommendationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []models.RecommendationRecord
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return recs, nil
}

// CropCount is how often a crop was recommended.
type CropCount struct {
	CropName string `json:"crop_name"`
	Count    int64  `json:"count"`
}

// Stats summarizes successful recommendations by crop, most frequent first.
func (s *Store) Stats(ctx context.Context) (total int64, crops []CropCount, err error) {
	db := s.db.WithContext(ctx).Model(&models.RecommendationRecord{})
	if err = db.Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("count recommendations: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&models.RecommendationRecord{}).
		Select("crop_name, COUNT(*) AS count").
		Where("status = ?", string(cropadvisor.StatusSuccess)).
		Group("crop_name").
		Order("count DESC").Order("crop_name ASC").
		Scan(&crops).Error
	if err != nil {
		return 0, nil, fmt.Errorf("group recommendations: %w", err)
	}
	return total, crops, nil
}
