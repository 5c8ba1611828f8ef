package record

import (
	"fmt"
	"slices"
)

// ApplyForm assigns submitted values to r using the given field table.
//
// Unknown field kinds are skipped and reported as warnings; a malformed date
// fails the whole form. Bool fields are true when the value is non-empty.
// Choice values outside the declared list are stored as submitted.
func ApplyForm(r *Record, fields []Field, get func(name string) string) (warnings []string, err error) {
	for _, f := range fields {
		if !f.accessible() {
			warnings = append(warnings, fmt.Sprintf("field %s has no accessor", f.Name))
			continue
		}
		v := get(f.Name)
		switch f.Kind {
		case FieldText, FieldLongText, FieldChoice:
			if f.Kind == FieldChoice && v == "" {
				v = defaultChoice(f)
			}
			*f.Str(r) = v
		case FieldBool:
			*f.Flag(r) = v != ""
		case FieldDate:
			d, err := ParseDate(v)
			if err != nil {
				return warnings, &FieldError{Field: f.Name, Err: err}
			}
			*f.When(r) = d
		case FieldWordIndex:
			// computed on save
		default:
			warnings = append(warnings, fmt.Sprintf("Unknown field type %s for %s", f.Kind, f.Name))
		}
	}
	return warnings, nil
}

func (f Field) accessible() bool {
	switch f.Kind {
	case FieldText, FieldLongText, FieldChoice:
		return f.Str != nil
	case FieldBool:
		return f.Flag != nil
	case FieldDate:
		return f.When != nil
	}
	return true
}

func defaultChoice(f Field) string {
	if f.Default != "" {
		return f.Default
	}
	if len(f.Choices) > 0 {
		return f.Choices[0]
	}
	return ""
}

// IsKnownChoice reports whether v is one of f's choices.
func (f Field) IsKnownChoice(v string) bool {
	return slices.Contains(f.Choices, v)
}
