package repository

import (
	"context"

	"github.com/clubdeck/booking-platform/internal/models"
	"gorm.io/gorm"
)

// ClubRepository only resolves club references for event creation; club
// management itself lives outside this service.
type ClubRepository interface {
	FindByID(ctx context.Context, id string) (*models.Club, error)
}

type clubRepository struct {
	db *gorm.DB
}

func NewClubRepository(db *gorm.DB) ClubRepository {
	return &clubRepository{db: db}
}

func (r *clubRepository) FindByID(ctx context.Context, id string) (*models.Club, error) {
	var club models.Club
	if err := r.db.WithContext(ctx).First(&club, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &club, nil
}
