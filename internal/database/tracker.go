package database

import (
	"database/sql"
	"errors"

	"github.com/contabilidad-io/contabilidad/internal/models"
)

// The tracker store backs the goals/tasks/progress-log API. It has no
// tenant scoping; the tracker predates the account system and keeps
// its single-user contract.

// ListGoals returns all goals, newest first.
func (db *DB) ListGoals() ([]models.Goal, error) {
	rows, err := db.conn.Query(
		"SELECT id, title, description, target_date, status, created_at FROM goals ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []models.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// GetGoal returns one goal by id.
func (db *DB) GetGoal(id int64) (*models.Goal, error) {
	query := db.dialect.Rebind(
		"SELECT id, title, description, target_date, status, created_at FROM goals WHERE id = ?")
	g, err := scanGoal(db.conn.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanGoal(row interface{ Scan(...any) error }) (models.Goal, error) {
	var g models.Goal
	var description, targetDate, status sql.NullString
	err := row.Scan(&g.ID, &g.Title, &description, &targetDate, &status, &g.CreatedAt)
	g.Description = description.String
	g.TargetDate = targetDate.String
	g.Status = status.String
	return g, err
}

// CreateGoal inserts a goal; status defaults to "active".
func (db *DB) CreateGoal(g *models.Goal) error {
	if g.Status == "" {
		g.Status = "active"
	}
	g.CreatedAt = nowISO()

	if db.dialect == DialectPostgres {
		return db.conn.QueryRow(
			"INSERT INTO goals (title, description, target_date, status, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
			g.Title, g.Description, g.TargetDate, g.Status, g.CreatedAt,
		).Scan(&g.ID)
	}

	res, err := db.conn.Exec(
		"INSERT INTO goals (title, description, target_date, status, created_at) VALUES (?, ?, ?, ?, ?)",
		g.Title, g.Description, g.TargetDate, g.Status, g.CreatedAt,
	)
	if err != nil {
		return err
	}
	g.ID, err = res.LastInsertId()
	return err
}

// UpdateGoal rewrites a goal and reports how many rows changed.
func (db *DB) UpdateGoal(g *models.Goal) (int64, error) {
	query := db.dialect.Rebind(
		"UPDATE goals SET title = ?, description = ?, target_date = ?, status = ? WHERE id = ?")
	res, err := db.conn.Exec(query, g.Title, g.Description, g.TargetDate, g.Status, g.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteGoal removes a goal; tasks and logs cascade.
func (db *DB) DeleteGoal(id int64) (int64, error) {
	query := db.dialect.Rebind("DELETE FROM goals WHERE id = ?")
	res, err := db.conn.Exec(query, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListTasks returns a goal's tasks in creation order.
func (db *DB) ListTasks(goalID int64) ([]models.Task, error) {
	query := db.dialect.Rebind(
		"SELECT id, goal_id, title, completed, created_at, completed_at FROM tasks WHERE goal_id = ? ORDER BY created_at")
	rows, err := db.conn.Query(query, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		var completed int
		var completedAt sql.NullString
		if err := rows.Scan(&t.ID, &t.GoalID, &t.Title, &completed, &t.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		t.Completed = completed != 0
		if completedAt.Valid {
			t.CompletedAt = &completedAt.String
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a task under a goal.
func (db *DB) CreateTask(goalID int64, title string) (int64, error) {
	createdAt := nowISO()

	if db.dialect == DialectPostgres {
		var id int64
		err := db.conn.QueryRow(
			"INSERT INTO tasks (goal_id, title, completed, created_at) VALUES ($1, $2, 0, $3) RETURNING id",
			goalID, title, createdAt,
		).Scan(&id)
		return id, err
	}

	res, err := db.conn.Exec(
		"INSERT INTO tasks (goal_id, title, completed, created_at) VALUES (?, ?, 0, ?)",
		goalID, title, createdAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ToggleTask flips a task's completion state, stamping or clearing
// completed_at accordingly.
func (db *DB) ToggleTask(id int64) (int64, error) {
	var completed int
	lookup := db.dialect.Rebind("SELECT completed FROM tasks WHERE id = ?")
	err := db.conn.QueryRow(lookup, id).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	newCompleted := 1
	var completedAt any = nowISO()
	if completed != 0 {
		newCompleted = 0
		completedAt = nil
	}

	update := db.dialect.Rebind("UPDATE tasks SET completed = ?, completed_at = ? WHERE id = ?")
	res, err := db.conn.Exec(update, newCompleted, completedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteTask removes a task.
func (db *DB) DeleteTask(id int64) (int64, error) {
	query := db.dialect.Rebind("DELETE FROM tasks WHERE id = ?")
	res, err := db.conn.Exec(query, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListLogs returns a goal's progress notes, newest first.
func (db *DB) ListLogs(goalID int64) ([]models.ProgressLog, error) {
	query := db.dialect.Rebind(
		"SELECT id, goal_id, note, created_at FROM progress_logs WHERE goal_id = ? ORDER BY created_at DESC")
	rows, err := db.conn.Query(query, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.ProgressLog{}
	for rows.Next() {
		var l models.ProgressLog
		var note sql.NullString
		if err := rows.Scan(&l.ID, &l.GoalID, &note, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Note = note.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// CreateLog appends a progress note to a goal.
func (db *DB) CreateLog(goalID int64, note string) (int64, error) {
	createdAt := nowISO()

	if db.dialect == DialectPostgres {
		var id int64
		err := db.conn.QueryRow(
			"INSERT INTO progress_logs (goal_id, note, created_at) VALUES ($1, $2, $3) RETURNING id",
			goalID, note, createdAt,
		).Scan(&id)
		return id, err
	}

	res, err := db.conn.Exec(
		"INSERT INTO progress_logs (goal_id, note, created_at) VALUES (?, ?, ?)",
		goalID, note, createdAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
