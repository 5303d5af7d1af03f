package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/EvgenyiK/pulsefit-service/internal/models"
	"github.com/EvgenyiK/pulsefit-service/internal/plans"
)

type demoMember struct {
	name, email, role, category string
	startOffset, endOffset      int // дни относительно today
}

var demoMembers = []demoMember{
	{"Admin", "admin@pulsefit.com", models.RoleAdmin, "", 0, 0},
	{"John Doe", "user@pulsefit.com", models.RoleUser, plans.StrengthCardio, -180, 185},
	{"Jane Smith", "jane@example.com", models.RoleUser, plans.StrengthTraining, -140, 2},
	{"Mike Johnson", "mike@example.com", models.RoleUser, plans.StrengthCardio, -180, -5},
}

// Seed заполняет хранилище демонстрационными участниками: активным, истекающим и истекшим
func Seed(ctx context.Context, store Store, today time.Time) error {
	for i, d := range demoMembers {
		m := &models.Member{
			ID:        uuid.New(),
			Name:      d.name,
			Email:     d.email,
			Role:      d.role,
			CreatedAt: today.Add(time.Duration(i) * time.Second),
		}
		if plan, ok := plans.Lookup(d.category); ok {
			m.Subscription = &models.Subscription{
				ID:        uuid.New(),
				MemberID:  m.ID,
				Category:  plan.Name,
				Price:     plan.Price,
				StartDate: today.AddDate(0, 0, d.startOffset),
				EndDate:   today.AddDate(0, 0, d.endOffset),
			}
		}
		if err := store.CreateMember(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
