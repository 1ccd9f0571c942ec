// Package community runs the farmer message board and the contact form.
package community

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"agropulse/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var ErrPostNotFound = errors.New("post not found")

// FieldError names a required field that was empty after sanitizing.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return e.Field + " is required"
}

const (
	maxNameLen    = 100
	maxMessageLen = 4000
)

// Service is safe for concurrent use.
type Service struct {
	db     *gorm.DB
	policy *bluemonday.Policy
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, policy: bluemonday.StrictPolicy()}
}

// clean strips all markup and surrounding space, then truncates to max runes.
func (s *Service) clean(v string, max int) string {
	v = strings.TrimSpace(s.policy.Sanitize(v))
	if r := []rune(v); len(r) > max {
		v = string(r[:max])
	}
	return v
}

// CreatePost stores a post after sanitizing every field.
func (s *Service) CreatePost(ctx context.Context, name, location, message string) (*models.CommunityPost, error) {
	post := &models.CommunityPost{
		Name:     s.clean(name, maxNameLen),
		Location: s.clean(location, 150),
		Message:  s.clean(message, maxMessageLen),
	}
	if post.Name == "" {
		return nil, &FieldError{Field: "name"}
	}
	if post.Message == "" {
		return nil, &FieldError{Field: "message"}
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Replies = []models.PostReply{}
	log.Printf("[community] post %d by %s", post.ID, post.Name)
	return post, nil
}

// Reply adds a reply under an existing post.
func (s *Service) Reply(ctx context.Context, postID uint, name, message string) (*models.PostReply, error) {
	reply := &models.PostReply{
		PostID:  postID,
		Name:    s.clean(name, maxNameLen),
		Message: s.clean(message, maxMessageLen),
	}
	if reply.Name == "" {
		return nil, &FieldError{Field: "name"}
	}
	if reply.Message == "" {
		return nil, &FieldError{Field: "message"}
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.CommunityPost{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check post %d: %w", postID, err)
	}
	if n == 0 {
		return nil, ErrPostNotFound
	}
	if err := s.db.WithContext(ctx).Create(reply).Error; err != nil {
		return nil, fmt.Errorf("create reply: %w", err)
	}
	return reply, nil
}

// Posts lists posts newest first with their replies oldest first.
func (s *Service) Posts(ctx context.Context, limit int) ([]models.CommunityPost, error) {
	var posts []models.CommunityPost
	tx := s.db.WithContext(ctx).
		Preload("Replies", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	for i := range posts {
		if posts[i].Replies == nil {
			posts[i].Replies = []models.PostReply{}
		}
	}
	return posts, nil
}

// DeletePost soft-deletes a post.
func (s *Service) DeletePost(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.CommunityPost{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Contact stores a contact-form message. All fields are required and the
// email must parse as an address.
func (s *Service) Contact(ctx context.Context, name, email, message string) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:    s.clean(name, maxNameLen),
		Email:   s.clean(email, 254),
		Message: s.clean(message, maxMessageLen),
	}
	switch {
	case msg.Name == "":
		return nil, &FieldError{Field: "name"}
	case msg.Email == "":
		return nil, &FieldError{Field: "email"}
	case msg.Message == "":
		return nil, &FieldError{Field: "message"}
	}
	if addr, err := mail.ParseAddress(msg.Email); err != nil || addr.Address != msg.Email {
		return nil, &FieldError{Field: "email", Reason: "not a valid address"}
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("save contact message: %w", err)
	}
	log.Printf("[community] contact message %d from %s", msg.ID, msg.Email)
	return msg, nil
}

// Messages lists contact messages newest first.
func (s *Service) Messages(ctx context.Context) ([]models.ContactMessage, error) {
	var msgs []models.ContactMessage
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return msgs, nil
}

// MessageCount returns the number of contact messages.
func (s *Service) MessageCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ContactMessage{}).Count(&n).Error
	return n, err
}
