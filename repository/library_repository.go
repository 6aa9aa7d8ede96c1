package repository

import (
	"errors"
	"fmt"

	"melotree/model"

	"gorm.io/gorm"
)

// LibraryRepository defines the interface for library metadata operations.
type LibraryRepository interface {
	CreateLibrary(lib *model.Library) error
	GetLibraryByID(id string) (*model.Library, error)
	GetLibrariesByUserID(userID int64) ([]*model.Library, error)
	DeleteLibrary(id string) error
}

// gormLibraryRepository implements LibraryRepository on GORM.
type gormLibraryRepository struct {
	db *gorm.DB
}

// NewGormLibraryRepository creates a new gormLibraryRepository.
func NewGormLibraryRepository(db *gorm.DB) LibraryRepository {
	return &gormLibraryRepository{db: db}
}

// CreateLibrary inserts a new library metadata row.
func (r *gormLibraryRepository) CreateLibrary(lib *model.Library) error {
	if err := r.db.Create(lib).Error; err != nil {
		return fmt.Errorf("failed to create library %s: %w", lib.ID, err)
	}
	return nil
}

// GetLibraryByID retrieves one library, or nil when it does not exist.
func (r *gormLibraryRepository) GetLibraryByID(id string) (*model.Library, error) {
	lib := &model.Library{}
	err := r.db.First(lib, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get library %s: %w", id, err)
	}
	return lib, nil
}

// GetLibrariesByUserID lists a user's libraries, newest first.
func (r *gormLibraryRepository) GetLibrariesByUserID(userID int64) ([]*model.Library, error) {
	libs := make([]*model.Library, 0)
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&libs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries for user %d: %w", userID, err)
	}
	return libs, nil
}

// DeleteLibrary removes a library metadata row.
func (r *gormLibraryRepository) DeleteLibrary(id string) error {
	if err := r.db.Delete(&model.Library{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete library %s: %w", id, err)
	}
	return nil
}
