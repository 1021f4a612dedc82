package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bchakour/tb/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single connection
	// serializes all DB access through Go's connection pool, preventing
	// "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	// Create migrations tracking table
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// Sort by filename
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Check if already applied
		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Users ---

func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User, passwordHash string) error {
	if u.ID == "" {
		u.ID = newULID()
	}
	if u.Role == "" {
		u.Role = models.UserRoleMember
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, string(u.Role), passwordHash, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u := &models.User{}
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = models.UserRole(role)
	return u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	u := &models.User{}
	var role, hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, password_hash, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &hash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("get user by email: %w", err)
	}
	u.Role = models.UserRole(role)
	return u, hash, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, role, created_at FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = models.UserRole(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Projects ---

func (s *SQLiteStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = newULID()
	}
	p.CreatedAt = time.Now().UTC()

	var leadID any
	if p.Lead != nil {
		leadID = p.Lead.ID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, key, description, lead_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Key, p.Description, leadID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	if p.Lead != nil {
		if err := s.AddProjectMember(ctx, p.ID, p.Lead.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p := &models.Project{}
	var leadID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, key, description, lead_id, created_at FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Key, &p.Description, &leadID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if leadID.Valid {
		lead, err := s.GetUser(ctx, leadID.String)
		if err != nil {
			return nil, err
		}
		p.Lead = lead
	}
	members, err := s.ListProjectMembers(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Members = members
	return p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, key, description, lead_id, created_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type row struct {
		project *models.Project
		leadID  sql.NullString
	}
	var scanned []row
	for rows.Next() {
		p := &models.Project{}
		var leadID sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Key, &p.Description, &leadID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		scanned = append(scanned, row{project: p, leadID: leadID})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var projects []*models.Project
	for _, r := range scanned {
		if r.leadID.Valid {
			lead, err := s.GetUser(ctx, r.leadID.String)
			if err != nil {
				return nil, err
			}
			r.project.Lead = lead
		}
		projects = append(projects, r.project)
	}
	return projects, nil
}

func (s *SQLiteStore) AddProjectMember(ctx context.Context, projectID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO project_members (project_id, user_id) VALUES (?, ?)`, projectID, userID)
	if err != nil {
		return fmt.Errorf("add project member: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListProjectMembers(ctx context.Context, projectID string) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.created_at FROM users u
		JOIN project_members pm ON u.id = pm.user_id
		WHERE pm.project_id = ? ORDER BY u.name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []*models.User
	for rows.Next() {
		u := &models.User{}
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		u.Role = models.UserRole(role)
		members = append(members, u)
	}
	return members, rows.Err()
}

// --- Sprints ---

func (s *SQLiteStore) CreateSprint(ctx context.Context, sprint *models.Sprint) error {
	if sprint.ID == "" {
		sprint.ID = newULID()
	}
	if sprint.Status == "" {
		sprint.Status = models.SprintStatusPlanning
	}
	now := time.Now().UTC()
	sprint.CreatedAt = now
	sprint.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sprints (id, name, goal, start_date, end_date, status, project_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sprint.ID, sprint.Name, sprint.Goal, sprint.StartDate.String(), sprint.EndDate.String(),
		string(sprint.Status), sprint.ProjectID, sprint.CreatedAt, sprint.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create sprint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSprint(ctx context.Context, id string) (*models.Sprint, error) {
	sprint := &models.Sprint{}
	var status, startDate, endDate string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, goal, start_date, end_date, status, project_id, created_at, updated_at
		FROM sprints WHERE id = ?`, id,
	).Scan(&sprint.ID, &sprint.Name, &sprint.Goal, &startDate, &endDate, &status,
		&sprint.ProjectID, &sprint.CreatedAt, &sprint.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sprint %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get sprint: %w", err)
	}
	sprint.Status = models.SprintStatus(status)
	if sprint.StartDate, err = models.ParseDate(startDate); err != nil {
		return nil, err
	}
	if sprint.EndDate, err = models.ParseDate(endDate); err != nil {
		return nil, err
	}
	return sprint, nil
}

func (s *SQLiteStore) ListProjectSprints(ctx context.Context, projectID string) ([]*models.Sprint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, goal, start_date, end_date, status, project_id, created_at, updated_at
		FROM sprints WHERE project_id = ? ORDER BY start_date DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sprints []*models.Sprint
	for rows.Next() {
		sprint := &models.Sprint{}
		var status, startDate, endDate string
		if err := rows.Scan(&sprint.ID, &sprint.Name, &sprint.Goal, &startDate, &endDate, &status,
			&sprint.ProjectID, &sprint.CreatedAt, &sprint.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sprint: %w", err)
		}
		sprint.Status = models.SprintStatus(status)
		if sprint.StartDate, err = models.ParseDate(startDate); err != nil {
			return nil, err
		}
		if sprint.EndDate, err = models.ParseDate(endDate); err != nil {
			return nil, err
		}
		sprints = append(sprints, sprint)
	}
	return sprints, rows.Err()
}

func (s *SQLiteStore) UpdateSprint(ctx context.Context, sprint *models.Sprint) error {
	sprint.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE sprints SET name=?, goal=?, start_date=?, end_date=?, status=?, updated_at=? WHERE id=?`,
		sprint.Name, sprint.Goal, sprint.StartDate.String(), sprint.EndDate.String(),
		string(sprint.Status), sprint.UpdatedAt, sprint.ID,
	)
	if err != nil {
		return fmt.Errorf("update sprint: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("sprint %s: %w", sprint.ID, ErrNotFound)
	}
	return nil
}

// --- Tasks ---

func (s *SQLiteStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = newULID()
	}
	if task.Type == "" {
		task.Type = models.TaskTypeTask
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// The display key is derived from the project's key and a per-project
	// sequence, e.g. "TB-42".
	var projectKey string
	var seq int
	err = tx.QueryRowContext(ctx,
		`SELECT key, task_seq FROM projects WHERE id = ?`, task.ProjectID,
	).Scan(&projectKey, &seq)
	if err == sql.ErrNoRows {
		return fmt.Errorf("project %s: %w", task.ProjectID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get project key: %w", err)
	}
	seq++
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET task_seq = ? WHERE id = ?`, seq, task.ProjectID); err != nil {
		return fmt.Errorf("advance task sequence: %w", err)
	}
	task.TaskKey = fmt.Sprintf("%s-%d", projectKey, seq)

	var dueDate any
	if task.DueDate != nil && !task.DueDate.IsZero() {
		dueDate = task.DueDate.String()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (id, task_key, title, description, type, priority, status, due_date, assignee_id, reporter_id, sprint_id, project_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.TaskKey, task.Title, task.Description,
		string(task.Type), string(task.Priority), string(task.Status),
		dueDate, userID(task.Assignee), userID(task.Reporter), sprintID(task.Sprint),
		task.ProjectID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// userID extracts a nullable foreign key from an optional user.
func userID(u *models.User) any {
	if u == nil {
		return nil
	}
	return u.ID
}

// sprintID extracts a nullable foreign key from an optional sprint.
func sprintID(sp *models.Sprint) any {
	if sp == nil {
		return nil
	}
	return sp.ID
}

const taskColumns = `id, task_key, title, description, type, priority, status, due_date, assignee_id, reporter_id, sprint_id, project_id, created_at, updated_at`

// taskRow holds a scanned task before its references are hydrated.
type taskRow struct {
	task       *models.Task
	assigneeID sql.NullString
	reporterID sql.NullString
	sprintID   sql.NullString
}

func scanTask(scan func(dest ...any) error) (*taskRow, error) {
	task := &models.Task{}
	var taskType, priority, status string
	var dueDate sql.NullString
	r := &taskRow{task: task}

	if err := scan(&task.ID, &task.TaskKey, &task.Title, &task.Description,
		&taskType, &priority, &status, &dueDate,
		&r.assigneeID, &r.reporterID, &r.sprintID,
		&task.ProjectID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	task.Type = models.TaskType(taskType)
	task.Priority = models.TaskPriority(priority)
	task.Status = models.TaskStatus(status)
	if dueDate.Valid && dueDate.String != "" {
		d, err := models.ParseDate(dueDate.String)
		if err != nil {
			return nil, err
		}
		task.DueDate = &d
	}
	return r, nil
}

// hydrateTask resolves a task row's user and sprint references into the
// embedded objects the wire format carries.
func (s *SQLiteStore) hydrateTask(ctx context.Context, r *taskRow) (*models.Task, error) {
	if r.assigneeID.Valid {
		u, err := s.GetUser(ctx, r.assigneeID.String)
		if err != nil {
			return nil, err
		}
		r.task.Assignee = u
	}
	if r.reporterID.Valid {
		u, err := s.GetUser(ctx, r.reporterID.String)
		if err != nil {
			return nil, err
		}
		r.task.Reporter = u
	}
	if r.sprintID.Valid {
		sp, err := s.GetSprint(ctx, r.sprintID.String)
		if err != nil {
			return nil, err
		}
		r.task.Sprint = sp
	}
	return r.task, nil
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	r, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return s.hydrateTask(ctx, r)
}

func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskListFilter) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var conditions []string
	var args []any

	if filter.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.SprintID != "" {
		conditions = append(conditions, "sprint_id = ?")
		args = append(args, filter.SprintID)
	}
	if filter.AssigneeID != "" {
		conditions = append(conditions, "assignee_id = ?")
		args = append(args, filter.AssigneeID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scanned []*taskRow
	for rows.Next() {
		r, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		scanned = append(scanned, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var tasks []*models.Task
	for _, r := range scanned {
		task, err := s.hydrateTask(ctx, r)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()

	var dueDate any
	if task.DueDate != nil && !task.DueDate.IsZero() {
		dueDate = task.DueDate.String()
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title=?, description=?, type=?, priority=?, status=?, due_date=?, assignee_id=?, reporter_id=?, sprint_id=?, updated_at=?
		WHERE id=?`,
		task.Title, task.Description, string(task.Type), string(task.Priority), string(task.Status),
		dueDate, userID(task.Assignee), userID(task.Reporter), sprintID(task.Sprint),
		task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("task %s: %w", task.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Comments ---

func (s *SQLiteStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = newULID()
	}
	comment.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, text, task_id, author_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.Text, comment.TaskID, comment.AuthorID, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c := &models.Comment{}
	err := s.db.QueryRowContext(ctx,
		`SELECT c.id, c.text, c.task_id, c.author_id, u.name, u.email, c.created_at
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.id = ?`, id,
	).Scan(&c.ID, &c.Text, &c.TaskID, &c.AuthorID, &c.AuthorName, &c.AuthorEmail, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListTaskComments(ctx context.Context, taskID string) ([]*models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.text, c.task_id, c.author_id, u.name, u.email, c.created_at
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.task_id = ? ORDER BY c.created_at, c.id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.Text, &c.TaskID, &c.AuthorID, &c.AuthorName, &c.AuthorEmail, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *SQLiteStore) DeleteComment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("comment %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Reports ---

func (s *SQLiteStore) CreateReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = newULID()
	}
	if report.Type == "" {
		report.Type = models.ReportTypeCustom
	}
	report.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, title, content, prompt, type, project_id, author_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Title, report.Content, report.Prompt, string(report.Type),
		report.ProjectID, report.AuthorName, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	r := &models.Report{}
	var reportType string
	err := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.title, r.content, r.prompt, r.type, r.project_id, p.name, r.author_name, r.created_at
		FROM reports r JOIN projects p ON p.id = r.project_id
		WHERE r.id = ?`, id,
	).Scan(&r.ID, &r.Title, &r.Content, &r.Prompt, &reportType, &r.ProjectID, &r.ProjectName, &r.AuthorName, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	r.Type = models.ReportType(reportType)
	return r, nil
}

func (s *SQLiteStore) ListProjectReports(ctx context.Context, projectID string) ([]*models.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.title, r.content, r.prompt, r.type, r.project_id, p.name, r.author_name, r.created_at
		FROM reports r JOIN projects p ON p.id = r.project_id
		WHERE r.project_id = ? ORDER BY r.created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []*models.Report
	for rows.Next() {
		r := &models.Report{}
		var reportType string
		if err := rows.Scan(&r.ID, &r.Title, &r.Content, &r.Prompt, &reportType, &r.ProjectID, &r.ProjectName, &r.AuthorName, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Type = models.ReportType(reportType)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *SQLiteStore) DeleteReport(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	return nil
}
