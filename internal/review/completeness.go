package review

import (
	"reflect"

	"github.com/finops-intake/backend/internal/models"
)

// completenessDenominator is fixed at 2 whatever the number of required
// fields, so the ratio is not clamped to [0, 1].
// TODO: switch to len(required) once product confirms the progress bar
// should reflect the full required-field list.
const completenessDenominator = 2

type Completeness struct {
	RequiredMissing   []string `json:"required_missing"`
	CompletenessRatio float64  `json:"completeness_ratio"`
}

func (s *Session) Completeness() Completeness {
	return ComputeCompleteness(s.Body)
}

// ComputeCompleteness lists the required fields of the body's request type
// that are absent or empty.
func ComputeCompleteness(body models.ReviewBody) Completeness {
	missing := []string{}
	for _, name := range body.Classification.RequestType.RequiredFields() {
		if name == models.FieldEntityCode {
			if body.Extraction.EntityCode == nil || *body.Extraction.EntityCode == "" {
				missing = append(missing, name)
			}
			continue
		}
		if isEmpty(body.Extraction.Fields[name]) {
			missing = append(missing, name)
		}
	}
	return Completeness{
		RequiredMissing:   missing,
		CompletenessRatio: float64(completenessDenominator-len(missing)) / completenessDenominator,
	}
}

// isEmpty treats null, empty strings, zero numbers, false and empty
// collections as missing values.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case float32:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// equalValues compares field values, treating all numeric kinds as float64 so
// that JSON-decoded and literal numbers compare equal.
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	}
	return 0, false
}
