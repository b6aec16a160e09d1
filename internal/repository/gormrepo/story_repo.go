package gormrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/skillshare/skillshare-backend/internal/domain"
	"github.com/skillshare/skillshare-backend/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type storyRepository struct {
	db *gorm.DB
}

func NewStoryRepository(db *gorm.DB) *storyRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *domain.Story) error {
	return translateError(r.db.WithContext(ctx).Omit("Views").Create(story).Error)
}

func (r *storyRepository) GetByID(ctx context.Context, id string) (*domain.Story, error) {
	var story domain.Story
	err := r.db.WithContext(ctx).
		Preload("Views", func(db *gorm.DB) *gorm.DB {
			return db.Order("viewed_at ASC")
		}).
		First(&story, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &story, nil
}

func (r *storyRepository) List(ctx context.Context) ([]*domain.Story, error) {
	var stories []*domain.Story
	err := r.db.WithContext(ctx).
		Preload("Views").
		Order("created_at DESC").
		Find(&stories).Error
	if err != nil {
		return nil, translateError(err)
	}
	return stories, nil
}

func (r *storyRepository) ListAll(ctx context.Context) ([]*domain.Story, error) {
	var stories []*domain.Story
	err := r.db.WithContext(ctx).Find(&stories).Error
	if err != nil {
		return nil, translateError(err)
	}
	return stories, nil
}

func (r *storyRepository) UpdateText(ctx context.Context, id string, text string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Story{}).
		Where("id = ?", id).
		Update("text", text)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *storyRepository) AddView(ctx context.Context, storyID string, viewerID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Story{}).Where("id = ?", storyID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		view := &domain.StoryView{
			StoryID:  storyID,
			ViewerID: viewerID,
			ViewedAt: time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(view).Error
	})
	// A story deleted between the existence check and the insert surfaces as a
	// foreign key violation; to the caller it is simply gone.
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return repository.ErrNotFound
	}
	return translateError(err)
}

func (r *storyRepository) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.StoryView{}, "story_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Story{}, "id = ?", id)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return translateError(err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteMany removes the given stories and their views and returns the ids
// that were actually removed. Ids that no longer exist are ignored.
func (r *storyRepository) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var removed []domain.Story
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.StoryView{}, "story_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
			Where("id IN ?", ids).
			Delete(&removed).Error
	})
	if err != nil {
		return nil, translateError(err)
	}

	out := make([]string, 0, len(removed))
	for _, s := range removed {
		out = append(out, s.ID)
	}
	return out, nil
}

func (r *storyRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&domain.Story{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("story_id IN (?)", owned).Delete(&domain.StoryView{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Story{}, "user_id = ?", userID)
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, translateError(err)
	}
	return affected, nil
}
