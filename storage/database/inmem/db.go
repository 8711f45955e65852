package inmemdb

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
	"github.com/trezcool/madrasa/core/finance"
	"github.com/trezcool/madrasa/core/student"
	"github.com/trezcool/madrasa/core/teacher"
)

// DB is a process-local store. Repositories built on it use the executor of a unit of work only to record undo entries.
type DB struct {
	mutex        sync.RWMutex
	students     map[string]student.Student
	teachers     map[string]teacher.Teacher
	transactions map[string]finance.Transaction
	seq          map[string]int64 // insertion order of every row
	lastSeq      int64

	unitMutex sync.Mutex // serializes units of work
}

func Open() *DB {
	return &DB{
		students:     make(map[string]student.Student),
		teachers:     make(map[string]teacher.Teacher),
		transactions: make(map[string]finance.Transaction),
		seq:          make(map[string]int64),
	}
}

// newID returns a fresh primary key. Callers hold the write lock.
func (db *DB) newID() string {
	id := uuid.New().String()
	db.lastSeq++
	db.seq[id] = db.lastSeq
	return id
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.students = make(map[string]student.Student)
	db.teachers = make(map[string]teacher.Teacher)
	db.transactions = make(map[string]finance.Transaction)
}

// unit is the executor handed to a unit of work. It keeps the undo log of the writes made through it.
type unit struct {
	undo []func()
}

var _ core.DBExecutor = (*unit)(nil)

var errNoSQL = errors.New("in-memory unit of work does not run SQL")

func (*unit) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (*unit) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (*unit) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

// record remembers how to undo a write when it is made inside a unit of work. Callers hold the write lock.
func record[T any](execs []core.DBExecutor, table map[string]T, id string) {
	u, ok := core.GetExec(nil, execs).(*unit)
	if !ok {
		return
	}
	prev, existed := table[id]
	u.undo = append(u.undo, func() {
		if existed {
			table[id] = prev
		} else {
			delete(table, id)
		}
	})
}

func (db *DB) rollback(u *unit) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
}

type transactor struct {
	db *DB
}

var _ core.Transactor = (*transactor)(nil)

// NewTransactor runs units of work one at a time and undoes the writes of the ones that fail.
// Writes made outside the unit are left alone.
func NewTransactor(db *DB) core.Transactor {
	return &transactor{db: db}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	t.db.unitMutex.Lock()
	defer t.db.unitMutex.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	u := new(unit)
	if err := fn(u); err != nil {
		t.db.rollback(u)
		return err
	}
	return nil
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortInserted orders rows as they were inserted.
func sortInserted[T any](db *DB, rows []T, id func(T) string) {
	sort.SliceStable(rows, func(i, j int) bool { return db.seq[id(rows[i])] < db.seq[id(rows[j])] })
}

// sortRows stable-sorts rows following ordering. Unknown fields are ignored.
func sortRows[T any](rows []T, ordering []core.DBOrdering, fields map[string]func(a, b T) int) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			compare, ok := fields[ord.Field]
			if !ok {
				continue
			}
			c := compare(rows[i], rows[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func cmpNull(a, b null.Time) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid: // NULLS LAST
		return 1
	case !b.Valid:
		return -1
	default:
		return a.Time.Compare(b.Time)
	}
}
