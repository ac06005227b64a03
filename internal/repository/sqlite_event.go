package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/takeoff/internal/db"
	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/scheduler"
)

// eventColumns is the canonical SELECT column list for events.
const eventColumns = `id, title, start_at, end_at, all_day, status, priority, deadline,
		owner, assignees, project, dependencies, description, instructions,
		transcript_refs, ai_notes, reminders, links, created_at, updated_at`

// SQLiteEventRepo implements EventRepo using a SQLite database.
type SQLiteEventRepo struct {
	db db.DBTX
}

// NewSQLiteEventRepo creates a new SQLiteEventRepo.
func NewSQLiteEventRepo(conn db.DBTX) *SQLiteEventRepo {
	return &SQLiteEventRepo{db: conn}
}

func (r *SQLiteEventRepo) Create(ctx context.Context, e *domain.Event) error {
	args, err := eventArgs(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	query := `INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	e, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	return e, nil
}

// List returns every event ordered by start, then ID. Starts are compared as
// instants, not as stored strings, since rows may carry different offsets.
func (r *SQLiteEventRepo) List(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	scheduler.CanonicalSort(events)
	out := make([]*domain.Event, len(events))
	for i := range events {
		out[i] = &events[i]
	}
	return out, nil
}

func (r *SQLiteEventRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

func (r *SQLiteEventRepo) Update(ctx context.Context, e *domain.Event) error {
	args, err := eventArgs(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	query := `UPDATE events SET title = ?, start_at = ?, end_at = ?, all_day = ?, status = ?,
		priority = ?, deadline = ?, owner = ?, assignees = ?, project = ?, dependencies = ?,
		description = ?, instructions = ?, transcript_refs = ?, ai_notes = ?, reminders = ?,
		links = ?, created_at = ?, updated_at = ?
		WHERE id = ?`
	// eventArgs leads with the id; UPDATE takes it last.
	args = append(args[1:], args[0])
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", e.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteEventRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}

// eventArgs returns the column values in eventColumns order.
func eventArgs(e *domain.Event) ([]any, error) {
	assignees, err := toJSONColumn(e.Assignees)
	if err != nil {
		return nil, err
	}
	deps, err := toJSONColumn(e.Dependencies)
	if err != nil {
		return nil, err
	}
	refs, err := toJSONColumn(e.TranscriptRefs)
	if err != nil {
		return nil, err
	}
	reminders, err := toJSONColumn(e.Reminders)
	if err != nil {
		return nil, err
	}
	var links any
	if e.Links != nil {
		b, err := json.Marshal(e.Links)
		if err != nil {
			return nil, err
		}
		links = string(b)
	}

	return []any{
		e.ID,
		e.Title,
		e.Start.Format(timestampLayout),
		e.End.Format(timestampLayout),
		boolToInt(e.AllDay),
		string(e.Status),
		string(e.Priority),
		nullableTimeToString(e.Deadline, timestampLayout),
		e.Owner,
		assignees,
		nullableString(e.Project),
		deps,
		e.Description,
		e.Instructions,
		refs,
		nullableString(e.AINotes),
		reminders,
		links,
		e.CreatedAt.Format(timestampLayout),
		e.UpdatedAt.Format(timestampLayout),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent scans a single event from a row in eventColumns order.
func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var startStr, endStr, statusStr, priorityStr, createdAtStr, updatedAtStr string
	var assigneesStr, depsStr, refsStr, remindersStr string
	var allDayInt int
	var deadlineStr, projectStr, aiNotesStr, linksStr sql.NullString

	err := row.Scan(
		&e.ID, &e.Title, &startStr, &endStr, &allDayInt, &statusStr, &priorityStr, &deadlineStr,
		&e.Owner, &assigneesStr, &projectStr, &depsStr, &e.Description, &e.Instructions,
		&refsStr, &aiNotesStr, &remindersStr, &linksStr, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	return populateEvent(&e, populateArgs{
		start: startStr, end: endStr, status: statusStr, priority: priorityStr,
		createdAt: createdAtStr, updatedAt: updatedAtStr,
		assignees: assigneesStr, deps: depsStr, refs: refsStr, reminders: remindersStr,
		allDay: allDayInt, deadline: deadlineStr, project: projectStr,
		aiNotes: aiNotesStr, links: linksStr,
	})
}

type populateArgs struct {
	start, end, status, priority, createdAt, updatedAt string
	assignees, deps, refs, reminders                   string
	allDay                                             int
	deadline, project, aiNotes, links                  sql.NullString
}

// populateEvent fills in parsed fields on an Event after scanning raw values.
func populateEvent(e *domain.Event, a populateArgs) (*domain.Event, error) {
	var err error
	if e.Start, err = time.Parse(timestampLayout, a.start); err != nil {
		return nil, fmt.Errorf("parsing start_at: %w", err)
	}
	if e.End, err = time.Parse(timestampLayout, a.end); err != nil {
		return nil, fmt.Errorf("parsing end_at: %w", err)
	}
	if e.CreatedAt, err = time.Parse(timestampLayout, a.createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(timestampLayout, a.updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	e.AllDay = intToBool(a.allDay)
	e.Status = domain.EventStatus(a.status)
	e.Priority = domain.Priority(a.priority)
	e.Deadline = parseNullableTime(a.deadline, timestampLayout)
	e.Project = stringFromNull(a.project)
	e.AINotes = stringFromNull(a.aiNotes)

	if e.Assignees, err = fromJSONColumn[string](a.assignees, "assignees"); err != nil {
		return nil, err
	}
	if e.Dependencies, err = fromJSONColumn[string](a.deps, "dependencies"); err != nil {
		return nil, err
	}
	if e.TranscriptRefs, err = fromJSONColumn[string](a.refs, "transcript_refs"); err != nil {
		return nil, err
	}
	if e.Reminders, err = fromJSONColumn[domain.Reminder](a.reminders, "reminders"); err != nil {
		return nil, err
	}
	if a.links.Valid && a.links.String != "" {
		var links domain.EventLinks
		if err := json.Unmarshal([]byte(a.links.String), &links); err != nil {
			return nil, fmt.Errorf("decoding links: %w", err)
		}
		e.Links = &links
	}

	e.Normalize()
	return e, nil
}
