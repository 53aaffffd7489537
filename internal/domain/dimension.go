package domain

import "fmt"

// Dimension is a level of the question taxonomy used for analytics grouping.
type Dimension int

const (
	DimensionSubject Dimension = iota + 1
	DimensionTopic
	DimensionSubtopic
)

// Dimensions lists every valid dimension in taxonomy order.
func Dimensions() []Dimension {
	return []Dimension{DimensionSubject, DimensionTopic, DimensionSubtopic}
}

// ParseDimension maps the wire name to a Dimension.
func ParseDimension(raw string) (Dimension, error) {
	switch raw {
	case "subject":
		return DimensionSubject, nil
	case "topic":
		return DimensionTopic, nil
	case "subtopic":
		return DimensionSubtopic, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDimension, raw)
}

// Valid reports whether d is one of the declared dimensions.
func (d Dimension) Valid() bool {
	return d >= DimensionSubject && d <= DimensionSubtopic
}

func (d Dimension) String() string {
	switch d {
	case DimensionSubject:
		return "subject"
	case DimensionTopic:
		return "topic"
	case DimensionSubtopic:
		return "subtopic"
	}
	return fmt.Sprintf("Dimension(%d)", int(d))
}

// KeyOf extracts the question's id on this dimension. An empty string means
// the question is not tagged at this level.
func (d Dimension) KeyOf(q Question) string {
	switch d {
	case DimensionSubject:
		return q.SubjectID
	case DimensionTopic:
		return q.TopicID
	case DimensionSubtopic:
		return q.SubtopicID
	}
	return ""
}
