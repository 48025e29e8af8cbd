package models

// Identity is the authenticated caller as decoded from an access token.
// Engine operations receive it explicitly; nothing reads ambient state.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"` // PROFESSOR or STUDENT
}

const (
	RoleProfessor = "PROFESSOR"
	RoleStudent   = "STUDENT"
)

func (i Identity) IsProfessor() bool {
	return i.Role == RoleProfessor
}

func (i Identity) IsStudent() bool {
	return i.Role == RoleStudent
}
