package models

import (
	"time"
)

// Term is a university examination period (e.g. "Licență Iunie 2024").
type Term struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	AcademicYear string    `json:"academic_year" db:"academic_year"`
	Type         string    `json:"type" db:"type"` // SUMMER, AUTUMN, WINTER
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type TermType string

const (
	TermTypeSummer TermType = "SUMMER"
	TermTypeAutumn TermType = "AUTUMN"
	TermTypeWinter TermType = "WINTER"
)

func (t TermType) String() string {
	return string(t)
}

func IsValidTermType(t string) bool {
	switch t {
	case "SUMMER", "AUTUMN", "WINTER":
		return true
	default:
		return false
	}
}
