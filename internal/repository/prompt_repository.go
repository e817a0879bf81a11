package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Nikcet/ycla-ai-chat/internal/model"
)

type PromptRepository struct {
	db *gorm.DB
}

func NewPromptRepository(db *gorm.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

// Save replaces the company's prompt: the delete and insert run in one
// transaction so a reader never sees two active prompts for the same company.
func (r *PromptRepository) Save(prompt *model.AdminPrompt) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ?", prompt.CompanyID).Delete(&model.AdminPrompt{}).Error; err != nil {
			return err
		}
		return tx.Create(prompt).Error
	})
	if err != nil {
		return fmt.Errorf("save admin prompt failed: %w", err)
	}
	return nil
}

func (r *PromptRepository) GetByCompanyID(companyID uint) (*model.AdminPrompt, error) {
	var prompt model.AdminPrompt
	if err := r.db.Where("company_id = ?", companyID).First(&prompt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query admin prompt failed: %w", err)
	}
	return &prompt, nil
}

func (r *PromptRepository) DeleteByCompanyID(companyID uint) error {
	if err := r.db.Where("company_id = ?", companyID).Delete(&model.AdminPrompt{}).Error; err != nil {
		return fmt.Errorf("delete admin prompt failed: %w", err)
	}
	return nil
}
