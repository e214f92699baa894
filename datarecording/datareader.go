package datarecording

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"sort"
	"strings"
)

var (
	// ErrUnknownTable is returned when reading a table that was not
	// registered with the reader.
	ErrUnknownTable = errors.New("table not registered")

	// ErrUnknownColumn is returned when a query names a column that the
	// entries of the table do not have.
	ErrUnknownColumn = errors.New("no such column")
)

// A Query selects rows whose columns equal given values, in column order and
// one page at a time. The zero Query selects every row.
type Query struct {
	conditions []condition
	orderBy    string
	descending bool
	limit      int
	offset     int
}

type condition struct {
	column string
	value  any
}

// Select returns a query that selects every row.
func Select() Query {
	return Query{}
}

// Where keeps the rows whose column equals value.
func (q Query) Where(column string, value any) Query {
	q.conditions = append(slices.Clip(q.conditions), condition{column, value})
	return q
}

// OrderBy sorts the rows by column, in ascending order.
func (q Query) OrderBy(column string) Query {
	q.orderBy = column
	return q
}

// Descending reverses the order of the rows.
func (q Query) Descending() Query {
	q.descending = true
	return q
}

// Page skips offset rows and returns at most limit rows. A limit of 0 means
// no limit.
func (q Query) Page(limit, offset int) Query {
	q.limit = limit
	q.offset = offset

	return q
}

func (q Query) where(t *readerTable) (string, []any, error) {
	if len(q.conditions) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(q.conditions))
	args := make([]any, 0, len(q.conditions))

	for _, c := range q.conditions {
		if !t.hasColumn(c.column) {
			return "", nil, fmt.Errorf("%w: %s.%s",
				ErrUnknownColumn, t.name, c.column)
		}

		clauses = append(clauses, c.column+" = ?")
		args = append(args, c.value)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (q Query) tail(t *readerTable) (string, error) {
	var b strings.Builder

	if q.orderBy != "" {
		if !t.hasColumn(q.orderBy) {
			return "", fmt.Errorf("%w: %s.%s",
				ErrUnknownColumn, t.name, q.orderBy)
		}

		b.WriteString(" ORDER BY " + q.orderBy)
		if q.descending {
			b.WriteString(" DESC")
		}
	}

	switch {
	case q.limit > 0:
		fmt.Fprintf(&b, " LIMIT %d", q.limit)
	case q.offset > 0:
		b.WriteString(" LIMIT -1")
	}

	if q.offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.offset)
	}

	return b.String(), nil
}

type readerTable struct {
	name      string
	entryType reflect.Type
	fields    map[string]int
}

func newReaderTable(name string, sampleEntry any) *readerTable {
	entryType := reflect.TypeOf(sampleEntry)
	if entryType == nil || entryType.Kind() != reflect.Struct {
		panic(fmt.Sprintf("entries of table %s must be structs, got %T",
			name, sampleEntry))
	}

	t := &readerTable{
		name:      name,
		entryType: entryType,
		fields:    make(map[string]int, entryType.NumField()),
	}

	for i := 0; i < entryType.NumField(); i++ {
		t.fields[entryType.Field(i).Name] = i
	}

	return t
}

func (t *readerTable) hasColumn(column string) bool {
	_, found := t.fields[column]
	return found
}

// A Reader reads the tables of a SQLite file written by a recorder created
// with New. Each table is registered with the struct its rows were recorded
// from; rows are read back into new values of that struct.
type Reader struct {
	db     *sql.DB
	tables map[string]*readerTable
}

// OpenReader opens the SQLite file at path. The file must exist.
func OpenReader(path string) (*Reader, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	return &Reader{db: db, tables: make(map[string]*readerTable)}, nil
}

// Register declares that the rows of table hold entries like sampleEntry.
func (r *Reader) Register(table string, sampleEntry any) {
	r.tables[table] = newReaderTable(table, sampleEntry)
}

// Tables returns the registered tables in name order.
func (r *Reader) Tables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Read returns the rows of table selected by q, each as a pointer to a new
// entry, and the number of rows that match q regardless of its page.
func (r *Reader) Read(
	ctx context.Context,
	table string,
	q Query,
) ([]any, int, error) {
	t, found := r.tables[table]
	if !found {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	where, args, err := q.where(t)
	if err != nil {
		return nil, 0, err
	}

	tail, err := q.tail(t)
	if err != nil {
		return nil, 0, err
	}

	var total int

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting rows of %s: %w", table, err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM "+table+where+tail, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	entries, err := t.scan(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", table, err)
	}

	return entries, total, nil
}

// scan fills one new entry per row, matching columns to fields by name.
// Columns without a field are skipped.
func (t *readerTable) scan(rows *sql.Rows) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var entries []any

	for rows.Next() {
		entry := reflect.New(t.entryType)
		targets := make([]any, len(columns))

		for i, column := range columns {
			if field, found := t.fields[column]; found {
				targets[i] = entry.Elem().Field(field).Addr().Interface()
				continue
			}

			var skipped any
			targets[i] = &skipped
		}

		err := rows.Scan(targets...)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry.Interface())
	}

	return entries, rows.Err()
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// ReadAs reads the rows of table selected by q as values of T, which must be
// the type the table was registered with.
func ReadAs[T any](
	ctx context.Context,
	r *Reader,
	table string,
	q Query,
) ([]T, int, error) {
	if t, found := r.tables[table]; found &&
		t.entryType != reflect.TypeFor[T]() {
		return nil, 0, fmt.Errorf("table %s holds %s entries, not %s",
			table, t.entryType, reflect.TypeFor[T]())
	}

	entries, total, err := r.Read(ctx, table, q)
	if err != nil {
		return nil, 0, err
	}

	values := make([]T, 0, len(entries))
	for _, e := range entries {
		values = append(values, *e.(*T))
	}

	return values, total, nil
}
