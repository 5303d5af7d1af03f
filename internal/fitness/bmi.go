package fitness

import (
	"errors"
	"math"
)

var ErrInvalidMeasurement = errors.New("height and weight must be positive")

// BMI — индекс массы тела, округленный до одного знака
func BMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 || weightKg <= 0 {
		return 0, ErrInvalidMeasurement
	}
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*10) / 10, nil
}
