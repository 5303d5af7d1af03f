// Package subscription вычисляет состояние подписки: сколько дней осталось,
// статус и долю пройденного периода.
package subscription

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/EvgenyiK/pulsefit-service/internal/models"
)

// ExpiringThresholdDays — сколько дней до конца подписки считается "скоро истекает"
const ExpiringThresholdDays = 3

const day = 24 * time.Hour

var ErrInvalidDate = errors.New("invalid date")

// DaysLeft возвращает число дней от today до endDate с округлением вверх.
// Может быть отрицательным.
func DaysLeft(today, endDate time.Time) int {
	return ceilDays(endDate.Sub(today))
}

// Classify переводит остаток дней в статус
func Classify(daysLeft int) models.Status {
	switch {
	case daysLeft <= 0:
		return models.StatusExpired
	case daysLeft <= ExpiringThresholdDays:
		return models.StatusExpiring
	default:
		return models.StatusActive
	}
}

// ProgressPercent — доля прошедшего периода подписки в процентах, в пределах [0, 100].
// Период нулевой длины считается однодневным, перевернутый период (конец раньше начала) даёт 100.
func ProgressPercent(startDate, endDate, today time.Time) float64 {
	if endDate.Before(startDate) {
		return 100
	}

	totalDays := ceilDays(endDate.Sub(startDate))
	if totalDays == 0 {
		totalDays = 1
	}
	usedDays := totalDays - DaysLeft(today, endDate)

	raw := float64(usedDays) / float64(totalDays) * 100
	return math.Max(0, math.Min(100, raw))
}

// Compute собирает все показатели подписки на день today
func Compute(sub models.Subscription, today time.Time) models.SubscriptionView {
	daysLeft := DaysLeft(today, sub.EndDate)

	status := Classify(daysLeft)
	if sub.EndDate.Before(sub.StartDate) {
		status = models.StatusExpired
	}

	return models.SubscriptionView{
		DaysLeft:        daysLeft,
		Status:          status,
		ProgressPercent: ProgressPercent(sub.StartDate, sub.EndDate, today),
	}
}

// ComputeDates разбирает даты в формате YYYY-MM-DD и считает показатели
func ComputeDates(startDate, endDate string, today time.Time) (models.SubscriptionView, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return models.SubscriptionView{}, err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return models.SubscriptionView{}, err
	}
	return Compute(models.Subscription{StartDate: start, EndDate: end}, today), nil
}

// ParseDate разбирает календарную дату, ошибка оборачивает ErrInvalidDate
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(day)))
}
