// Package datarecording stores the rows produced while a workload runs, such
// as virtual memory events and run information, in a database.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists. The entry
	// must have the type of the sample entry of the table.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables.
	ListTables() []string

	// Flush writes all buffered entries into the database.
	Flush()

	// Close flushes and disconnects from the database.
	Close() error
}

// New creates a DataRecorder writing into the SQLite file path.sqlite3. A
// name is generated if path is empty. The file must not exist.
func New(path string) DataRecorder {
	if path == "" {
		path = "vmsim_record_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	return newSQLWriter(db, sqliteDialect)
}

// NewWithDB creates a DataRecorder writing into an open SQLite database.
func NewWithDB(db *sql.DB) DataRecorder {
	return newSQLWriter(db, sqliteDialect)
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqlWriter writes entries into an SQL database in batches.
type sqlWriter struct {
	sync.Mutex
	*sql.DB

	dialect    dialect
	tables     map[string]*table
	tableNames []string
	batchSize  int
	entryCount int
}

func newSQLWriter(db *sql.DB, d dialect) *sqlWriter {
	w := &sqlWriter{
		DB:        db,
		dialect:   d,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

func isAllowedType(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func checkStructFields(entry any) error {
	types := reflect.TypeOf(entry)
	if types.Kind() != reflect.Struct {
		return errors.New("entry must be a struct")
	}

	for i := 0; i < types.NumField(); i++ {
		field := types.Field(i)

		if !field.IsExported() || !isAllowedType(field.Type.Kind()) {
			return fmt.Errorf("field %s of %s cannot be recorded",
				field.Name, types.Name())
		}
	}

	return nil
}

func (w *sqlWriter) CreateTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	w.Lock()
	defer w.Unlock()

	if _, exists := w.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	w.mustExecute(w.dialect.createTableSQL(tableName, sampleEntry))

	w.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	w.tableNames = append(w.tableNames, tableName)
}

func (w *sqlWriter) InsertData(tableName string, entry any) {
	w.Lock()

	t, exists := w.tables[tableName]
	if !exists {
		w.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		w.Unlock()
		panic(fmt.Sprintf("entry of type %T does not belong to table %s",
			entry, tableName))
	}

	t.entries = append(t.entries, entry)
	w.entryCount++
	full := w.entryCount >= w.batchSize

	w.Unlock()

	if full {
		w.Flush()
	}
}

func (w *sqlWriter) ListTables() []string {
	w.Lock()
	defer w.Unlock()

	return append([]string(nil), w.tableNames...)
}

func (w *sqlWriter) Flush() {
	w.Lock()
	defer w.Unlock()

	if w.entryCount == 0 {
		return
	}

	tx, err := w.Begin()
	if err != nil {
		panic(err)
	}

	for _, tableName := range w.tableNames {
		t := w.tables[tableName]
		if len(t.entries) == 0 {
			continue
		}

		w.insertEntries(tx, tableName, t.entries)
		t.entries = nil
	}

	err = tx.Commit()
	if err != nil {
		panic(err)
	}

	w.entryCount = 0
}

func (w *sqlWriter) insertEntries(tx *sql.Tx, tableName string, entries []any) {
	stmt, err := tx.Prepare(w.dialect.insertSQL(tableName, entries[0]))
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		_, err := stmt.Exec(structs.Values(entry)...)
		if err != nil {
			panic(err)
		}
	}
}

func (w *sqlWriter) Close() error {
	w.Flush()
	return w.DB.Close()
}

func (w *sqlWriter) mustExecute(query string) sql.Result {
	res, err := w.Exec(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

func placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = "?"
	}

	return "(" + strings.Join(marks, ", ") + ")"
}
