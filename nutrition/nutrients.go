package nutrition

import "math"

// Nutrients is an amount of energy and macros, either per 100 g of a food
// or for a logged quantity.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
		Fiber:    n.Fiber + o.Fiber,
	}
}

func (n Nutrients) Scale(factor float64) Nutrients {
	return Nutrients{
		Calories: n.Calories * factor,
		Protein:  n.Protein * factor,
		Carbs:    n.Carbs * factor,
		Fat:      n.Fat * factor,
		Fiber:    n.Fiber * factor,
	}
}

// ForGrams scales a per-100 g value to the given quantity.
func (n Nutrients) ForGrams(grams float64) Nutrients {
	return n.Scale(grams / 100)
}

func (n Nutrients) IsZero() bool {
	return n == Nutrients{}
}

// Valid reports whether every field is a finite, non-negative amount.
func (n Nutrients) Valid() bool {
	for _, f := range []float64{n.Calories, n.Protein, n.Carbs, n.Fat, n.Fiber} {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Round2 rounds every field to two decimals for display.
func (n Nutrients) Round2() Nutrients {
	r := func(f float64) float64 { return math.Round(f*100) / 100 }
	return Nutrients{
		Calories: r(n.Calories),
		Protein:  r(n.Protein),
		Carbs:    r(n.Carbs),
		Fat:      r(n.Fat),
		Fiber:    r(n.Fiber),
	}
}
