package models

import (
	"time"
)

// Request is a student's bid for one spot of a session. At most one request
// per student may be APPROVED at any time, across all sessions.
type Request struct {
	ID              string    `json:"id" db:"id"`
	StudentID       string    `json:"student_id" db:"student_id"`
	SessionID       string    `json:"session_id" db:"session_id"`
	Status          string    `json:"status" db:"status"` // PENDING, APPROVED, REJECTED
	RejectionReason *string   `json:"rejection_reason,omitempty" db:"rejection_reason"`
	StudentFileKey  *string   `json:"student_file_key,omitempty" db:"student_file_key"`
	ReviewerFileKey *string   `json:"reviewer_file_key,omitempty" db:"reviewer_file_key"`
	Message         string    `json:"message" db:"message"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type RequestWithDetails struct {
	Request
	StudentName      string    `json:"student_name" db:"student_name"`
	StudentFaculty   string    `json:"student_faculty" db:"student_faculty"`
	SessionStart     time.Time `json:"session_start" db:"session_start"`
	SessionEnd       time.Time `json:"session_end" db:"session_end"`
	ProfessorID      string    `json:"professor_id" db:"professor_id"`
	ProfessorName    string    `json:"professor_name" db:"professor_name"`
	TermName         string    `json:"term_name" db:"term_name"`
	TermAcademicYear string    `json:"term_academic_year" db:"term_academic_year"`
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

func (rs RequestStatus) String() string {
	return string(rs)
}

func IsValidRequestStatus(status string) bool {
	switch status {
	case "PENDING", "APPROVED", "REJECTED":
		return true
	default:
		return false
	}
}
