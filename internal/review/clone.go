package review

import "github.com/finops-intake/backend/internal/models"

func cloneSuggestion(s models.SuggestionRecord) models.SuggestionRecord {
	s.Extraction = cloneExtraction(s.Extraction)
	s.DraftResponse = cloneDraft(s.DraftResponse)
	return s
}

func cloneBody(b models.ReviewBody) models.ReviewBody {
	b.Extraction = cloneExtraction(b.Extraction)
	b.DraftResponse = cloneDraft(b.DraftResponse)
	return b
}

func cloneExtraction(e models.Extraction) models.Extraction {
	if e.EntityCode != nil {
		v := *e.EntityCode
		e.EntityCode = &v
	}
	if e.DueDate != nil {
		v := *e.DueDate
		e.DueDate = &v
	}
	e.RiskFlags = cloneStrings(e.RiskFlags)
	if e.Fields != nil {
		fields := make(map[string]any, len(e.Fields))
		for k, v := range e.Fields {
			fields[k] = cloneValue(v)
		}
		e.Fields = fields
	}
	return e
}

func cloneDraft(d models.DraftResponse) models.DraftResponse {
	d.QuestionsForRequester = cloneStrings(d.QuestionsForRequester)
	return d
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	case []string:
		return cloneStrings(t)
	}
	return v
}
