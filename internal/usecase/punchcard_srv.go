package usecase

import (
	"context"

	"sauna-booking/internal/data/entity"
	"sauna-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PunchCardService is the member-facing read side of punch cards.
type PunchCardService interface {
	GetMemberCards(ctx context.Context, ownerID uuid.UUID) ([]*entity.PunchCard, error)
	GetCardUsage(ctx context.Context, ownerID, cardID uuid.UUID) ([]*entity.PunchCardUsageEntry, error)
	GetTemplates(ctx context.Context) ([]*entity.PunchCardTemplate, error)
}

type punchCardService struct {
	cards     repository.PunchCardRepository
	templates repository.PunchCardTemplateRepository
	log       *zap.Logger
}

func NewPunchCardService(cards repository.PunchCardRepository, templates repository.PunchCardTemplateRepository, log *zap.Logger) PunchCardService {
	return &punchCardService{
		cards:     cards,
		templates: templates,
		log:       log.With(zap.String("service", "punch_card")),
	}
}

func (s *punchCardService) GetMemberCards(ctx context.Context, ownerID uuid.UUID) ([]*entity.PunchCard, error) {
	return s.cards.FindActiveByOwner(ctx, ownerID)
}

func (s *punchCardService) GetCardUsage(ctx context.Context, ownerID, cardID uuid.UUID) ([]*entity.PunchCardUsageEntry, error) {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrPunchCardNotFound
	}
	if card.OwnerID != ownerID {
		return nil, ErrNotBookingOwner
	}
	return s.cards.ListUsage(ctx, cardID)
}

func (s *punchCardService) GetTemplates(ctx context.Context) ([]*entity.PunchCardTemplate, error) {
	return s.templates.FindAllActive(ctx)
}
