package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Nikcet/ycla-ai-chat/internal/model"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(company *model.Company) error {
	if err := r.db.Create(company).Error; err != nil {
		return fmt.Errorf("create company failed: %w", err)
	}
	return nil
}

func (r *CompanyRepository) GetByID(id uint) (*model.Company, error) {
	var company model.Company
	if err := r.db.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query company by id failed: %w", err)
	}
	return &company, nil
}

func (r *CompanyRepository) GetByAPIKey(apiKey string) (*model.Company, error) {
	var company model.Company
	if err := r.db.Where("api_key = ?", apiKey).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query company by api key failed: %w", err)
	}
	return &company, nil
}

// GetByName matches case-insensitively; registration rejects duplicates that
// differ only in case.
func (r *CompanyRepository) GetByName(name string) (*model.Company, error) {
	var company model.Company
	if err := r.db.Where("LOWER(name) = ?", strings.ToLower(name)).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query company by name failed: %w", err)
	}
	return &company, nil
}

func (r *CompanyRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Company{}, id).Error; err != nil {
		return fmt.Errorf("delete company failed: %w", err)
	}
	return nil
}
