package tracing

import (
	"database/sql"
	"encoding/json"
)

// TaskQuery is used to define the tasks to be queried. Not all the field has to
// be set. If the fields are empty, the criteria is ignored.
type TaskQuery struct {
	// Use ID to select a single task by its ID.
	ID string

	// Use Kind to select all the tasks that are of a kind.
	Kind string

	// Use What to select the tasks with a specific description.
	What string

	// Use Where to select all the tasks that are executed at a location.
	Where string
}

// SQLiteTraceReader is a reader that reads trace data from a SQLite database.
type SQLiteTraceReader struct {
	*sql.DB

	filename string
}

// NewSQLiteTraceReader creates a new SQLiteTraceReader.
func NewSQLiteTraceReader(filename string) *SQLiteTraceReader {
	return &SQLiteTraceReader{
		filename: filename,
	}
}

// Init establishes a connection to the database.
func (r *SQLiteTraceReader) Init() {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		panic(err)
	}

	r.DB = db
}

// ListTasks returns the tasks that match the query, in start time order.
// Details are decoded into generic JSON values.
func (r *SQLiteTraceReader) ListTasks(query TaskQuery) []Task {
	sqlStr := `
		SELECT task_id, parent_id, kind, what, location,
			start_time, end_time, detail
		FROM trace
		WHERE (? = '' OR task_id = ?)
			AND (? = '' OR kind = ?)
			AND (? = '' OR what = ?)
			AND (? = '' OR location = ?)
		ORDER BY start_time
	`

	rows, err := r.Query(sqlStr,
		query.ID, query.ID,
		query.Kind, query.Kind,
		query.What, query.What,
		query.Where, query.Where,
	)
	if err != nil {
		panic(err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			panic(err)
		}
	}()

	tasks := []Task{}

	for rows.Next() {
		var (
			t          Task
			start, end float64
			detail     string
		)

		err := rows.Scan(
			&t.ID, &t.ParentID, &t.Kind, &t.What, &t.Where,
			&start, &end, &detail,
		)
		if err != nil {
			panic(err)
		}

		t.StartTime = fromSeconds(start)
		t.EndTime = fromSeconds(end)

		if detail != "" && detail != "null" {
			err = json.Unmarshal([]byte(detail), &t.Detail)
			if err != nil {
				panic(err)
			}
		}

		tasks = append(tasks, t)
	}

	return tasks
}
