package app

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Nikcet/ycla-ai-chat/internal/model"
	"github.com/Nikcet/ycla-ai-chat/internal/repository"
)

type CompanyService struct {
	companyRepo *repository.CompanyRepository
}

func NewCompanyService(companyRepo *repository.CompanyRepository) *CompanyService {
	return &CompanyService{companyRepo: companyRepo}
}

// Register creates a company and issues its API key. Names are unique
// case-insensitively.
func (s *CompanyService) Register(name string) (*model.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.companyRepo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrNameTaken
	}

	company := &model.Company{
		Name:   name,
		APIKey: uuid.NewString(),
	}
	if err := s.companyRepo.Create(company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CompanyService) GetByAPIKey(apiKey string) (*model.Company, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrInvalidInput
	}
	return s.companyRepo.GetByAPIKey(apiKey)
}
