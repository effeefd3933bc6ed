package usecase

import (
	"context"
	"fmt"
	"time"

	"sauna-booking/internal/data/entity"
	"sauna-booking/internal/data/repository"
	"sauna-booking/internal/dto/request"
	"sauna-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService is the staff-facing session catalogue. The reserved counter
// is owned by the capacity ledger and never written here.
type SessionService interface {
	CreateSession(ctx context.Context, req *request.CreateSessionRequest) (*entity.Session, error)
	UpdateSession(ctx context.Context, id uuid.UUID, req *request.UpdateSessionRequest) (*entity.Session, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	GetUpcomingSessions(ctx context.Context, page, limit int) ([]*entity.Session, int64, error)
}

type sessionService struct {
	sessions repository.SessionRepository
	themes   repository.ThemeRepository
	log      *zap.Logger
}

func NewSessionService(sessions repository.SessionRepository, themes repository.ThemeRepository, log *zap.Logger) SessionService {
	return &sessionService{
		sessions: sessions,
		themes:   themes,
		log:      log.With(zap.String("service", "session")),
	}
}

func (s *sessionService) CreateSession(ctx context.Context, req *request.CreateSessionRequest) (*entity.Session, error) {
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q: %w", req.StartTime, err)
	}
	if !startTime.After(time.Now()) {
		return nil, fmt.Errorf("start time must be in the future")
	}

	var themeID *uuid.UUID
	if req.ThemeID != "" {
		id, err := uuid.Parse(req.ThemeID)
		if err != nil {
			return nil, fmt.Errorf("invalid theme id: %w", err)
		}
		theme, err := s.themes.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if theme == nil || !theme.IsActive {
			return nil, fmt.Errorf("theme %s is not available", id)
		}
		themeID = &id
	}

	var hostID *uuid.UUID
	if req.HostEmployeeID != "" {
		id, err := uuid.Parse(req.HostEmployeeID)
		if err != nil {
			return nil, fmt.Errorf("invalid host employee id: %w", err)
		}
		hostID = &id
	}

	now := time.Now()
	session := &entity.Session{
		Base:            entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:            req.Name,
		Location:        req.Location,
		StartTime:       startTime,
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
		PricePerSpot:    req.PricePerSpot,
		IsPrivate:       req.IsPrivate,
		ThemeID:         themeID,
		HostEmployeeID:  hostID,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("Session created",
		zap.String("session_id", session.ID.String()),
		zap.String("name", session.Name),
		zap.Time("start_time", session.StartTime),
		zap.Int("capacity", session.Capacity),
	)
	return session, nil
}

func (s *sessionService) UpdateSession(ctx context.Context, id uuid.UUID, req *request.UpdateSessionRequest) (*entity.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if req.Name != "" {
		session.Name = req.Name
	}
	if req.Location != "" {
		session.Location = req.Location
	}
	if req.StartTime != "" {
		startTime, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start time %q: %w", req.StartTime, err)
		}
		session.StartTime = startTime
	}
	if req.DurationMinutes > 0 {
		session.DurationMinutes = req.DurationMinutes
	}
	if req.Capacity > 0 {
		if req.Capacity < session.Reserved {
			return nil, fmt.Errorf("capacity %d is below the %d spots already reserved", req.Capacity, session.Reserved)
		}
		session.Capacity = req.Capacity
	}
	if req.PricePerSpot > 0 {
		session.PricePerSpot = req.PricePerSpot
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	s.log.Info("Session updated", zap.String("session_id", id.String()))
	return session, nil
}

func (s *sessionService) GetSessionByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) GetUpcomingSessions(ctx context.Context, page, limit int) ([]*entity.Session, int64, error) {
	offset := utils.CalculateOffset(page, limit)
	sessions, err := s.sessions.FindUpcoming(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.sessions.CountUpcoming(ctx)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}
