package models

// Goal is a tracker goal. Status is free-form, "active" by default.
type Goal struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetDate  string `json:"target_date"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

// Task belongs to a goal and can be toggled complete.
type Task struct {
	ID          int64   `json:"id"`
	GoalID      int64   `json:"goal_id"`
	Title       string  `json:"title"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at"`
}

// ProgressLog is a dated note attached to a goal.
type ProgressLog struct {
	ID        int64  `json:"id"`
	GoalID    int64  `json:"goal_id"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at"`
}
