package models

import "time"

// Data Transfer Objects

type CreateProfessorRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
}

type UpdateProfessorRequest struct {
	FullName   *string `json:"full_name,omitempty"`
	Department *string `json:"department,omitempty"`
}

type CreateStudentRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	Faculty        string `json:"faculty"`
	Specialization string `json:"specialization"`
	StudyGroup     string `json:"study_group"`
}

type UpdateStudentRequest struct {
	FullName       *string `json:"full_name,omitempty"`
	Faculty        *string `json:"faculty,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	StudyGroup     *string `json:"study_group,omitempty"`
}

type CreateTermRequest struct {
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year"`
	Type         string `json:"type"`
}

type CreateSessionRequest struct {
	ProfessorID string    `json:"professor_id"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MaxSpots    int       `json:"max_spots"`
	TermID      string    `json:"term_id"`
}

// UpdateSessionRequest carries a partial edit; nil fields are left untouched.
type UpdateSessionRequest struct {
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	MaxSpots    *int       `json:"max_spots,omitempty"`
}

type SubmitRequestRequest struct {
	StudentID string `json:"student_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type DecideRequestRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	Role  string      `json:"role"`
	User  interface{} `json:"user"`
}

type RequestsResponse struct {
	Requests []RequestWithDetails `json:"requests"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	Limit    int                  `json:"limit"`
}

type SessionsResponse struct {
	Sessions []SessionWithDetails `json:"sessions"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	Limit    int                  `json:"limit"`
}
