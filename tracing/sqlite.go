package tracing

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTraceWriter is a tracer that writes finished tasks into a SQLite
// database. Tasks are buffered and written in batches.
type SQLiteTraceWriter struct {
	*sql.DB
	statement *sql.Stmt

	timeTeller TimeTeller
	dbName     string
	batchSize  int

	lock             sync.Mutex
	inflightTasks    map[string]Task
	tasksToWriteToDB []Task
}

// NewSQLiteTraceWriter creates a new SQLiteTraceWriter. The database file is
// path + ".sqlite3"; an empty path picks a unique name.
func NewSQLiteTraceWriter(path string, timeTeller TimeTeller) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		timeTeller:    timeTeller,
		dbName:        path,
		batchSize:     1000,
		inflightTasks: make(map[string]Task),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// WithBatchSize sets how many tasks are buffered before a write.
func (t *SQLiteTraceWriter) WithBatchSize(n int) *SQLiteTraceWriter {
	t.batchSize = n
	return t
}

// Init establishes a connection to the database.
func (t *SQLiteTraceWriter) Init() {
	t.createDatabase()
	t.createTable()
	t.prepareStatement()
}

// FileName returns the name of the database file.
func (t *SQLiteTraceWriter) FileName() string {
	return t.dbName + ".sqlite3"
}

// StartTask records the start of a task.
func (t *SQLiteTraceWriter) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	t.inflightTasks[task.ID] = task
}

// EndTask queues a finished task to be written.
func (t *SQLiteTraceWriter) EndTask(task Task) {
	endTime := t.timeTeller.CurrentTime()

	t.lock.Lock()

	original, ok := t.inflightTasks[task.ID]
	if !ok {
		t.lock.Unlock()
		return
	}

	delete(t.inflightTasks, task.ID)

	original.EndTime = endTime
	if task.Detail != nil {
		original.Detail = task.Detail
	}

	t.tasksToWriteToDB = append(t.tasksToWriteToDB, original)
	full := len(t.tasksToWriteToDB) >= t.batchSize

	t.lock.Unlock()

	if full {
		t.Flush()
	}
}

// Flush writes all the buffered tasks to the database.
func (t *SQLiteTraceWriter) Flush() {
	t.lock.Lock()
	tasks := t.tasksToWriteToDB
	t.tasksToWriteToDB = nil
	t.lock.Unlock()

	if len(tasks) == 0 || t.DB == nil {
		return
	}

	t.mustExecute("BEGIN TRANSACTION")
	defer t.mustExecute("COMMIT TRANSACTION")

	for _, task := range tasks {
		detail, err := json.Marshal(task.Detail)
		if err != nil {
			panic(err)
		}

		_, err = t.statement.Exec(
			task.ID,
			task.ParentID,
			task.Kind,
			task.What,
			task.Where,
			toSeconds(task.StartTime),
			toSeconds(task.EndTime),
			string(detail),
		)
		if err != nil {
			panic(err)
		}
	}
}

func toSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromSeconds(s float64) time.Time {
	return time.Unix(0, int64(s*float64(time.Second)))
}

func (t *SQLiteTraceWriter) createDatabase() {
	if t.dbName == "" {
		t.dbName = "psp_trace_" + xid.New().String()
	}

	filename := t.FileName()

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Scrub trace is collected in database: %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	t.DB = db
}

func (t *SQLiteTraceWriter) createTable() {
	t.mustExecute(`
		create table trace
		(
			task_id    varchar(200) not null,
			parent_id  varchar(200),
			kind       varchar(100),
			what       varchar(100),
			location   varchar(100),
			start_time float        not null,
			end_time   float        default 0,
			detail     text
		);
	`)

	t.mustExecute(`
		create index trace_task_id_uindex
			on trace (task_id);
	`)

	t.mustExecute(`
		create index trace_kind_index
			on trace (kind);
	`)

	t.mustExecute(`
		create index trace_start_time_index
			on trace (start_time);
	`)
}

func (t *SQLiteTraceWriter) prepareStatement() {
	stmt, err := t.Prepare(`INSERT INTO trace VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		panic(err)
	}

	t.statement = stmt
}

func (t *SQLiteTraceWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}
