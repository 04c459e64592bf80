package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Course is the catalog entry for one course.
type Course struct {
	Title      string   `json:"title" yaml:"title"`
	Link       string   `json:"course_link,omitempty" yaml:"link"`
	Instructor string   `json:"instructor,omitempty" yaml:"instructor"`
	Lessons    []Lesson `json:"lessons" yaml:"lessons"`
}

// Lesson is one lesson within a course.
type Lesson struct {
	Number int    `json:"lesson_number" yaml:"number"`
	Title  string `json:"lesson_title" yaml:"title"`
	Link   string `json:"lesson_link,omitempty" yaml:"link"`
}

// Chunk is a piece of course content stored in the content collection.
// LessonNumber is nil for course-level material not tied to a lesson.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Index        int
}

// ID returns the stable identifier for the chunk within the content
// collection. Spaces in the course title are replaced with underscores.
func (x *Chunk) ID() string {
	return strings.ReplaceAll(x.CourseTitle, " ", "_") + "_" + strconv.Itoa(x.Index)
}

// ParseLessons decodes the serialized lesson list stored in catalog
// metadata. Malformed input yields nil rather than an error so that a
// damaged record degrades to "no lesson information".
func ParseLessons(raw string) []Lesson {
	if raw == "" {
		return nil
	}
	var lessons []Lesson
	if err := json.Unmarshal([]byte(raw), &lessons); err != nil {
		return nil
	}
	return lessons
}
