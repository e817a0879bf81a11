package app

import (
	"strings"

	"github.com/Nikcet/ycla-ai-chat/internal/model"
	"github.com/Nikcet/ycla-ai-chat/internal/repository"
)

type PromptService struct {
	promptRepo *repository.PromptRepository
}

func NewPromptService(promptRepo *repository.PromptRepository) *PromptService {
	return &PromptService{promptRepo: promptRepo}
}

func (s *PromptService) Save(companyID uint, content string) (*model.AdminPrompt, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrPromptEmpty
	}

	prompt := &model.AdminPrompt{
		CompanyID: companyID,
		Content:   content,
	}
	if err := s.promptRepo.Save(prompt); err != nil {
		return nil, err
	}
	return prompt, nil
}

func (s *PromptService) Get(companyID uint) (*model.AdminPrompt, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	return s.promptRepo.GetByCompanyID(companyID)
}
