package model

// Metadata field names used by the content collection.
const (
	FieldCourseTitle  = "course_title"
	FieldLessonNumber = "lesson_number"
)

// Predicate is a boolean filter evaluated against chunk metadata during
// retrieval. A nil Predicate means no filtering.
type Predicate interface {
	isPredicate()
}

// Equals matches records whose metadata field equals the given value.
type Equals struct {
	Field string
	Value any
}

// And matches records that satisfy both child predicates.
type And struct {
	Left  Predicate
	Right Predicate
}

func (Equals) isPredicate() {}
func (And) isPredicate()    {}

// BuildFilter builds a Predicate from optional course and lesson narrowing.
// The course clause always precedes the lesson clause when both are present.
func BuildFilter(courseTitle string, lessonNumber *int) Predicate {
	var preds []Predicate
	if courseTitle != "" {
		preds = append(preds, Equals{Field: FieldCourseTitle, Value: courseTitle})
	}
	if lessonNumber != nil {
		preds = append(preds, Equals{Field: FieldLessonNumber, Value: *lessonNumber})
	}

	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Left: preds[0], Right: preds[1]}
	}
}
