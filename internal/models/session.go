package models

import (
	"time"
)

// Session is a professor-published supervision window with a fixed number
// of spots. AvailableSpots is mutated only through the booking engine and
// always stays within [0, MaxSpots].
type Session struct {
	ID             string    `json:"id" db:"id"`
	ProfessorID    string    `json:"professor_id" db:"professor_id"`
	Description    string    `json:"description" db:"description"`
	StartTime      time.Time `json:"start_time" db:"start_time"`
	EndTime        time.Time `json:"end_time" db:"end_time"`
	MaxSpots       int       `json:"max_spots" db:"max_spots"`
	AvailableSpots int       `json:"available_spots" db:"available_spots"`
	TermID         string    `json:"term_id" db:"term_id"`
}

type SessionWithDetails struct {
	Session
	ProfessorName       string `json:"professor_name" db:"professor_name"`
	ProfessorDepartment string `json:"professor_department" db:"professor_department"`
	TermName            string `json:"term_name" db:"term_name"`
	TermAcademicYear    string `json:"term_academic_year" db:"term_academic_year"`
}

// GrantedSpots is the number of capacity units currently held by approved
// requests.
func (s *Session) GrantedSpots() int {
	return s.MaxSpots - s.AvailableSpots
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
