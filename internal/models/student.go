package models

import (
	"time"
)

type Student struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	FullName       string    `json:"full_name" db:"full_name"`
	Faculty        string    `json:"faculty" db:"faculty"`
	Specialization string    `json:"specialization" db:"specialization"`
	StudyGroup     string    `json:"study_group" db:"study_group"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
