package datarecording

import (
	"reflect"
	"strings"

	"github.com/fatih/structs"
)

// A dialect turns Go field kinds into the column types of one database.
type dialect struct {
	name        string
	columnTypes map[reflect.Kind]string
	textType    string
	tableSuffix string
}

var sqliteDialect = dialect{
	name: "sqlite3",
	columnTypes: map[reflect.Kind]string{
		reflect.Bool:    "INTEGER",
		reflect.Float32: "REAL",
		reflect.Float64: "REAL",
	},
	textType: "TEXT",
}

var mysqlDialect = dialect{
	name: "mysql",
	columnTypes: map[reflect.Kind]string{
		reflect.Bool:    "BOOLEAN",
		reflect.Uint:    "BIGINT UNSIGNED",
		reflect.Uint8:   "BIGINT UNSIGNED",
		reflect.Uint16:  "BIGINT UNSIGNED",
		reflect.Uint32:  "BIGINT UNSIGNED",
		reflect.Uint64:  "BIGINT UNSIGNED",
		reflect.Float32: "DOUBLE",
		reflect.Float64: "DOUBLE",
	},
	textType:    "VARCHAR(255)",
	tableSuffix: " ENGINE=InnoDB",
}

func (d dialect) columnType(kind reflect.Kind) string {
	if t, ok := d.columnTypes[kind]; ok {
		return t
	}

	if kind == reflect.String {
		return d.textType
	}

	if d.name == "mysql" {
		return "BIGINT"
	}

	return "INTEGER"
}

func (d dialect) createTableSQL(tableName string, sampleEntry any) string {
	columns := []string{}
	for _, field := range structs.Fields(sampleEntry) {
		columns = append(columns,
			field.Name()+" "+d.columnType(field.Kind()))
	}

	return "CREATE TABLE " + tableName + " (\n\t" +
		strings.Join(columns, ",\n\t") + "\n)" + d.tableSuffix
}

func (d dialect) insertSQL(tableName string, sampleEntry any) string {
	return "INSERT INTO " + tableName + " VALUES " +
		placeholders(len(structs.Names(sampleEntry)))
}
