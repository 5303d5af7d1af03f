package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status — состояние подписки, вычисляется на лету и нигде не хранится
type Status string

const (
	StatusActive   Status = "active"
	StatusExpiring Status = "expiring"
	StatusExpired  Status = "expired"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DateLayout — формат календарных дат в API и выгрузках
const DateLayout = "2006-01-02"

type Subscription struct {
	ID        uuid.UUID `json:"id"`
	MemberID  uuid.UUID `json:"member_id"`
	Category  string    `json:"category"`
	Price     int       `json:"price"` // в рублях за месяц, целое число
	StartDate time.Time `json:"start_date" swaggertype:"string" format:"date" example:"2024-01-31"` // в JSON как YYYY-MM-DD
	EndDate   time.Time `json:"end_date" swaggertype:"string" format:"date" example:"2024-12-31"`
}

type subscriptionJSON struct {
	ID        uuid.UUID `json:"id"`
	MemberID  uuid.UUID `json:"member_id"`
	Category  string    `json:"category"`
	Price     int       `json:"price"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
}

// MarshalJSON пишет даты подписки в том же формате, в котором API их принимает
func (s Subscription) MarshalJSON() ([]byte, error) {
	return json.Marshal(subscriptionJSON{
		ID:        s.ID,
		MemberID:  s.MemberID,
		Category:  s.Category,
		Price:     s.Price,
		StartDate: s.StartDate.Format(DateLayout),
		EndDate:   s.EndDate.Format(DateLayout),
	})
}

func (s *Subscription) UnmarshalJSON(data []byte) error {
	var raw subscriptionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := time.Parse(DateLayout, raw.StartDate)
	if err != nil {
		return err
	}
	end, err := time.Parse(DateLayout, raw.EndDate)
	if err != nil {
		return err
	}

	*s = Subscription{
		ID:        raw.ID,
		MemberID:  raw.MemberID,
		Category:  raw.Category,
		Price:     raw.Price,
		StartDate: start,
		EndDate:   end,
	}
	return nil
}

type Profile struct {
	Age         *int     `json:"age,omitempty"`
	HeightCm    *float64 `json:"height_cm,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	FitnessGoal string   `json:"fitness_goal,omitempty"`
	Phone       string   `json:"phone,omitempty"`
}

type Member struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Role         string        `json:"role"`
	Profile      Profile       `json:"profile"`
	Subscription *Subscription `json:"subscription,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// SubscriptionView — производные показатели подписки на конкретный день
type SubscriptionView struct {
	DaysLeft        int     `json:"days_left"`
	Status          Status  `json:"status"`
	ProgressPercent float64 `json:"progress_percent"`
}

// MemberView — участник вместе с вычисленным состоянием подписки
type MemberView struct {
	Member
	View *SubscriptionView `json:"view,omitempty"`
	BMI  *float64          `json:"bmi,omitempty"`
}

type Stats struct {
	Active       int `json:"active"`
	Expiring     int `json:"expiring"`
	Expired      int `json:"expired"`
	Total        int `json:"total"`
	TotalRevenue int `json:"total_revenue"`
}
