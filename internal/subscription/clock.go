package subscription

import "time"

// Clock отдает текущую календарную дату
type Clock interface {
	Today() time.Time
}

type SystemClock struct{}

// Today возвращает полночь текущего дня по UTC
func (SystemClock) Today() time.Time {
	return StartOfDay(time.Now())
}

// FixedClock всегда возвращает один и тот же день, используется в тестах
type FixedClock time.Time

func (c FixedClock) Today() time.Time {
	return StartOfDay(time.Time(c))
}

func StartOfDay(t time.Time) time.Time {
	year, month, d := t.UTC().Date()
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
