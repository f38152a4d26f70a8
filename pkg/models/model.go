package models

// Model identifies an AI model tier. The set is closed: any value outside it
// is coerced to DefaultModel at the point of use, never stored as-is.
type Model string

const (
	ModelGPT35Turbo Model = "gpt-3.5-turbo"
	ModelGPT4       Model = "gpt-4"
	ModelGPT4Turbo  Model = "gpt-4-turbo"
	ModelGPT4o      Model = "gpt-4o"
)

// DefaultModel is the fallback when an unknown model value is encountered.
const DefaultModel = ModelGPT35Turbo

// AllModels lists the selectable model tiers in presentation order.
var AllModels = []Model{ModelGPT35Turbo, ModelGPT4, ModelGPT4Turbo, ModelGPT4o}

// Valid reports whether m is a member of the enumerated model set.
func (m Model) Valid() bool {
	switch m {
	case ModelGPT35Turbo, ModelGPT4, ModelGPT4Turbo, ModelGPT4o:
		return true
	}
	return false
}

// CoerceModel maps an arbitrary string onto the enumerated set. The second
// return value is false when the input was invalid and the default applied.
func CoerceModel(s string) (Model, bool) {
	m := Model(s)
	if m.Valid() {
		return m, true
	}
	return DefaultModel, false
}
