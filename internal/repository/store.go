package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/EvgenyiK/pulsefit-service/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// TotalCostFilter — необязательные фильтры для подсчета стоимости подписок
type TotalCostFilter struct {
	MemberID *uuid.UUID
	Category string
}

// Store — хранилище участников клуба и их подписок
type Store interface {
	CreateMember(ctx context.Context, m *models.Member) error
	GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error)
	ListMembers(ctx context.Context) ([]models.Member, error)
	UpdateMember(ctx context.Context, m *models.Member) error
	UpdateProfile(ctx context.Context, id uuid.UUID, p models.Profile) error
	RenewSubscription(ctx context.Context, memberID uuid.UUID, endDate time.Time) error
	DeleteMember(ctx context.Context, id uuid.UUID) error
	TotalCost(ctx context.Context, date time.Time, f TotalCostFilter) (int, error)
	Close()
}
