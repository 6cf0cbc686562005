package models

// Category is one of the five fixed rubric dimensions
type Category string

const (
	Technique    Category = "technique"
	Musicality   Category = "musicality"
	Expression   Category = "expression"
	Timing       Category = "timing"
	Presentation Category = "presentation"
)

// Categories lists every rubric dimension in display order
var Categories = []Category{Technique, Musicality, Expression, Timing, Presentation}

var categoryLabels = map[Category]string{
	Technique:    "Technique",
	Musicality:   "Musicality",
	Expression:   "Expression",
	Timing:       "Timing",
	Presentation: "Presentation",
}

// Label returns the display name of the category
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// ScoreValues holds one value per category. A nil value means "not scored",
// which is distinct from any number.
type ScoreValues struct {
	Technique    *float64 `json:"technique"`
	Musicality   *float64 `json:"musicality"`
	Expression   *float64 `json:"expression"`
	Timing       *float64 `json:"timing"`
	Presentation *float64 `json:"presentation"`
}

// Get returns the value stored for c
func (v ScoreValues) Get(c Category) *float64 {
	switch c {
	case Technique:
		return v.Technique
	case Musicality:
		return v.Musicality
	case Expression:
		return v.Expression
	case Timing:
		return v.Timing
	case Presentation:
		return v.Presentation
	}
	return nil
}

// Set stores val for c; a nil val clears the category
func (v *ScoreValues) Set(c Category, val *float64) {
	switch c {
	case Technique:
		v.Technique = val
	case Musicality:
		v.Musicality = val
	case Expression:
		v.Expression = val
	case Timing:
		v.Timing = val
	case Presentation:
		v.Presentation = val
	}
}

// Merge returns v with every non-nil value of patch applied
func (v ScoreValues) Merge(patch ScoreValues) ScoreValues {
	for _, c := range Categories {
		if p := patch.Get(c); p != nil {
			val := *p
			v.Set(c, &val)
		}
	}
	return v
}

// Float returns a pointer to f, for building ScoreValues literals
func Float(f float64) *float64 {
	return &f
}
