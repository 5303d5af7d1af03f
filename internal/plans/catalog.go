package plans

// Plan — тарифный план клуба
type Plan struct {
	Name        string   `json:"name"`
	Price       int      `json:"price"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Popular     bool     `json:"popular"`
}

const (
	StrengthTraining = "Strength Training"
	StrengthCardio   = "Strength + Cardio"
)

var catalog = []Plan{
	{
		Name:        StrengthTraining,
		Price:       800,
		Description: "Perfect for strength and muscle building",
		Features: []string{
			"Access to weight training area",
			"Free weights and machines",
			"Basic fitness assessment",
			"Locker room access",
			"Mobile app access",
		},
	},
	{
		Name:        StrengthCardio,
		Price:       1000,
		Description: "Complete fitness solution for all goals",
		Features: []string{
			"Everything in Strength Training",
			"Cardio equipment access",
			"Group fitness classes",
			"Personal trainer consultation",
			"Nutrition guidance",
			"Progress tracking",
		},
		Popular: true,
	},
}

// All возвращает копию каталога
func All() []Plan {
	out := make([]Plan, len(catalog))
	for i, p := range catalog {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

func Lookup(category string) (Plan, bool) {
	for _, p := range All() {
		if p.Name == category {
			return p, true
		}
	}
	return Plan{}, false
}
