package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/EvgenyiK/pulsefit-service/internal/models"
)

const uniqueViolation = "23505"

const selectMembers = `
	SELECT m.id, m.name, m.email, m.role, m.age, m.height_cm::float8, m.weight_kg::float8,
	       m.fitness_goal, m.phone, m.created_at,
	       s.id::text, s.category, s.price, s.start_date, s.end_date
	FROM members m
	LEFT JOIN subscriptions s ON s.member_id = m.id`

type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres создает новое подключение к базе данных
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &Postgres{db: pool}, nil
}

func (r *Postgres) Close() {
	r.db.Close()
}

// CreateMember добавляет участника и его подписку одной транзакцией
func (r *Postgres) CreateMember(ctx context.Context, m *models.Member) error {
	err := r.db.BeginFunc(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO members (id, name, email, role, age, height_cm, weight_kg, fitness_goal, phone, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			m.ID, m.Name, m.Email, m.Role,
			m.Profile.Age, m.Profile.HeightCm, m.Profile.WeightKg, m.Profile.FitnessGoal, m.Profile.Phone,
			m.CreatedAt,
		)
		if err != nil {
			return err
		}
		if m.Subscription == nil {
			return nil
		}
		return insertSubscription(ctx, tx, m.Subscription)
	})
	return mapError(err)
}

func insertSubscription(ctx context.Context, tx pgx.Tx, sub *models.Subscription) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO subscriptions (id, member_id, category, price, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.MemberID, sub.Category, sub.Price, sub.StartDate, sub.EndDate,
	)
	return err
}

// GetMember возвращает участника по ID
func (r *Postgres) GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	row := r.db.QueryRow(ctx, selectMembers+` WHERE m.id = $1`, id)

	m, err := scanMember(row)
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *Postgres) ListMembers(ctx context.Context) ([]models.Member, error) {
	rows, err := r.db.Query(ctx, selectMembers+` ORDER BY m.created_at, m.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// UpdateMember обновляет данные участника и заменяет его подписку
func (r *Postgres) UpdateMember(ctx context.Context, m *models.Member) error {
	err := r.db.BeginFunc(ctx, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx, `UPDATE members SET name=$2, email=$3, role=$4 WHERE id=$1`,
			m.ID, m.Name, m.Email, m.Role)
		if err != nil {
			return err
		}
		if cmdTag.RowsAffected() != 1 {
			return ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE member_id=$1`, m.ID); err != nil {
			return err
		}
		if m.Subscription == nil {
			return nil
		}
		return insertSubscription(ctx, tx, m.Subscription)
	})
	return mapError(err)
}

func (r *Postgres) UpdateProfile(ctx context.Context, id uuid.UUID, p models.Profile) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE members SET age=$2, height_cm=$3, weight_kg=$4, fitness_goal=$5, phone=$6
		WHERE id=$1`,
		id, p.Age, p.HeightCm, p.WeightKg, p.FitnessGoal, p.Phone,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// RenewSubscription переносит дату окончания подписки участника
func (r *Postgres) RenewSubscription(ctx context.Context, memberID uuid.UUID, endDate time.Time) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE subscriptions SET end_date=$2 WHERE member_id=$1`, memberID, endDate)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// DeleteMember удаляет участника, подписка удаляется каскадом
func (r *Postgres) DeleteMember(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM members WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// TotalCost суммирует цены подписок, действующих на указанную дату
func (r *Postgres) TotalCost(ctx context.Context, date time.Time, f TotalCostFilter) (int, error) {
	query := `
		SELECT COALESCE(SUM(price), 0)
		FROM subscriptions
		WHERE start_date <= $1::date AND end_date >= $1::date`

	args := []interface{}{date}
	argPos := 2 // позиция следующего аргумента

	if f.MemberID != nil {
		query += " AND member_id = $" + strconv.Itoa(argPos)
		args = append(args, *f.MemberID)
		argPos++
	}

	if f.Category != "" {
		query += " AND category = $" + strconv.Itoa(argPos)
		args = append(args, f.Category)
	}

	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func scanMember(row pgx.Row) (*models.Member, error) {
	var (
		m        models.Member
		subID    *string
		category *string
		price    *int
		start    *time.Time
		end      *time.Time
	)

	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Email,
		&m.Role,
		&m.Profile.Age,
		&m.Profile.HeightCm,
		&m.Profile.WeightKg,
		&m.Profile.FitnessGoal,
		&m.Profile.Phone,
		&m.CreatedAt,
		&subID,
		&category,
		&price,
		&start,
		&end,
	)
	if err != nil {
		return nil, err
	}

	if subID != nil {
		id, err := uuid.Parse(*subID)
		if err != nil {
			return nil, fmt.Errorf("parse subscription id: %w", err)
		}
		m.Subscription = &models.Subscription{
			ID:        id,
			MemberID:  m.ID,
			Category:  *category,
			Price:     *price,
			StartDate: *start,
			EndDate:   *end,
		}
	}
	return &m, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}
