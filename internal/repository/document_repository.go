package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Nikcet/ycla-ai-chat/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ListByCompanyID(companyID uint) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Where("company_id = ?", companyID).Order("created_at ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) DeleteByDocID(companyID uint, docID string) error {
	if err := r.db.Where("company_id = ? AND doc_id = ?", companyID, docID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteByCompanyID(companyID uint) error {
	if err := r.db.Where("company_id = ?", companyID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete documents by company failed: %w", err)
	}
	return nil
}
