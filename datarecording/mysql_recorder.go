package datarecording

import (
	"database/sql"
	"fmt"

	// Need to use MySQL connections.
	_ "github.com/go-sql-driver/mysql"
)

// NewMySQLRecorder creates a DataRecorder writing into the MySQL database
// named by dsn, for example "user:password@tcp(localhost:3306)/vmsim".
func NewMySQLRecorder(dsn string) (DataRecorder, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening MySQL: %w", err)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to MySQL: %w", err)
	}

	return newSQLWriter(db, mysqlDialect), nil
}
