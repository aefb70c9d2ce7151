package handler

// messageResponse is the body of acknowledgement and error responses.
type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// --- Request / Response types ---

type registerUserRequest struct {
	UID   string `json:"uid"   validate:"required,max=128"`
	Email string `json:"email" validate:"omitempty,max=320"`
	Name  string `json:"name"  validate:"omitempty,max=256"`
}

type listTasksQuery struct {
	UID string `query:"uid" validate:"required"`
}

type deleteTaskResponse struct {
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}

// taskDocument documents the task shape for the API reference. Tasks also
// carry any additional fields the client stored.
type taskDocument struct {
	ID        string `json:"id"        example:"65f1c0ffee0000000000abcd"`
	UID       string `json:"uid"       example:"firebase-uid-1"`
	Title     string `json:"title"     example:"Write report"`
	Category  string `json:"category"  example:"To-Do"`
	Position  int64  `json:"position"  example:"0"`
	CreatedAt string `json:"createdAt" example:"2026-03-01T12:00:00Z"`
	UpdatedAt string `json:"updatedAt" example:"2026-03-01T12:00:00Z"`
}
