package models

type SessionCreatedEvent struct {
	SessionID   string `json:"session_id"`
	ProfessorID string `json:"professor_id"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
	MaxSpots    int    `json:"max_spots"`
	Timestamp   int64  `json:"timestamp"`
}

type RequestDecidedEvent struct {
	RequestID   string `json:"request_id"`
	SessionID   string `json:"session_id"`
	StudentID   string `json:"student_id"`
	ProfessorID string `json:"professor_id"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`
}
