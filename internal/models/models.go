package models

import (
	"time"

	"gorm.io/gorm"
)

// CommunityPost is a farmer's post on the community board
type CommunityPost struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"size:100;not null"`
	Location  string         `json:"location" gorm:"size:150"`
	Message   string         `json:"message" gorm:"type:text;not null"`
	Replies   []PostReply    `json:"replies" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// PostReply is a reply under a community post
type PostReply struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactMessage is a message sent through the contact form
type ContactMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" gorm:"size:254;not null"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// ResearchPaper is the metadata of an uploaded PDF; the bytes live in the blob store
type ResearchPaper struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"size:255;not null;index"`
	Topic     string    `json:"topic" gorm:"size:100;index"`
	Uploader  string    `json:"uploader" gorm:"size:100"`
	Filename  string    `json:"filename" gorm:"size:255"`
	BlobKey   string    `json:"blob_key" gorm:"size:64;uniqueIndex;not null"`
	Storage   string    `json:"storage" gorm:"size:16"` // local, s3
	Size      int64     `json:"size"`
	Pages     int       `json:"pages"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// RecommendationRecord audits one crop recommendation
type RecommendationRecord struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Status       string    `json:"status" gorm:"size:16;index"`
	CropName     string    `json:"crop_name" gorm:"size:100;index"`
	LabelID      *int      `json:"label_id"`
	Confidence   *float64  `json:"confidence_score"`
	IsReliable   bool      `json:"is_reliable"`
	ModelVersion string    `json:"model_version" gorm:"size:64"`
	Engine       string    `json:"engine" gorm:"size:32"`
	Source       string    `json:"description_source" gorm:"size:16"`
	Nitrogen     float64   `json:"nitrogen"`
	Phosphorus   float64   `json:"phosphorus"`
	Potassium    float64   `json:"potassium"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	PH           float64   `json:"ph"`
	Rainfall     float64   `json:"rainfall"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

// All lists every model for AutoMigrate
func All() []interface{} {
	return []interface{}{
		&CommunityPost{},
		&PostReply{},
		&ContactMessage{},
		&ResearchPaper{},
		&RecommendationRecord{},
	}
}
