package repository

import (
	"context"

	"gorm.io/gorm"

	"foodgram/internal/model"
)

// FollowRepository persists subscriptions between users.
type FollowRepository interface {
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	// Add inserts the edge. ErrDuplicate is returned when it already exists.
	Add(ctx context.Context, userID, authorID uint) error
	Remove(ctx context.Context, userID, authorID uint) (bool, error)
	// FollowedAmong returns the subset of authorIDs followed by userID.
	FollowedAmong(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error)
	// ListAuthors returns the authors userID follows, oldest subscription first.
	ListAuthors(ctx context.Context, userID uint, page Page) ([]model.User, int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *followRepository) Add(ctx context.Context, userID, authorID uint) error {
	follow := &model.Follow{UserID: userID, AuthorID: authorID}
	return translate(r.db.WithContext(ctx).Create(follow).Error)
}

func (r *followRepository) Remove(ctx context.Context, userID, authorID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&model.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) FollowedAmong(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	followed := make(map[uint]bool)
	if userID == 0 || len(authorIDs) == 0 {
		return followed, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}

func (r *followRepository) ListAuthors(ctx context.Context, userID uint, page Page) ([]model.User, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var authors []model.User
	q := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.id ASC")
	if err := page.apply(q).Find(&authors).Error; err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}
