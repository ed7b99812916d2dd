package schema

// TaskTable represents the 'tasks.task' table
type TaskTable struct {
	Table       string
	ID          string
	UserID      string
	Title       string
	Description string
	Status      string
	DueDate     string
	CreatedAt   string
	UpdatedAt   string
}

// Task is the schema definition for tasks.task
var Task = TaskTable{
	Table:       "tasks.task",
	ID:          "id",
	UserID:      "userid",
	Title:       "title",
	Description: "description",
	Status:      "status",
	DueDate:     "duedate",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t TaskTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Title, t.Description, t.Status, t.DueDate, t.CreatedAt, t.UpdatedAt,
	}
}
