package evaluator

import (
	"database/sql"
	"fmt"
	"rill/internal/object"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connection handles are plain integers on the language side; the registry
// below resolves them. Errors surface as catchable host errors so scripts
// can wrap db calls in try/catch.
var (
	dbMu           sync.Mutex
	dbNextHandle   int64
	dbConnections  = map[int64]*sql.DB{}
	dbTransactions = map[int64]*sql.Tx{}
)

func funcDbConnect() *object.Builtin {
	return &object.Builtin{
		Name: "db_connect",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 2 {
				return newError(object.ArityMismatch,
					"db_connect expects 2 arguments (driver, dsn), got %d", len(args))
			}
			driver, errObj := stringArg("db_connect", args[0])
			if errObj != nil {
				return errObj
			}
			dsn, errObj := stringArg("db_connect", args[1])
			if errObj != nil {
				return errObj
			}

			db, err := sql.Open(driver, dsn)
			if err != nil {
				return newError(object.HostError, "failed to open connection: %v", err)
			}
			if err := db.Ping(); err != nil {
				return newError(object.HostError, "failed to ping database: %v", err)
			}

			dbMu.Lock()
			dbNextHandle++
			handle := dbNextHandle
			dbConnections[handle] = db
			dbMu.Unlock()

			return &object.Integer{Value: handle}
		},
	}
}

func funcDbQuery() *object.Builtin {
	return &object.Builtin{
		Name: "db_query",
		Fn: func(args ...object.Object) object.Object {
			db, tx, query, params, errObj := unpackDbCall("db_query", args)
			if errObj != nil {
				return errObj
			}

			var rows *sql.Rows
			var err error
			if tx != nil {
				rows, err = tx.Query(query, params...)
			} else {
				rows, err = db.Query(query, params...)
			}
			if err != nil {
				return newError(object.HostError, "query failed: %v", err)
			}
			defer rows.Close()

			return renderRows(rows)
		},
	}
}

func funcDbExec() *object.Builtin {
	return &object.Builtin{
		Name: "db_exec",
		Fn: func(args ...object.Object) object.Object {
			db, tx, query, params, errObj := unpackDbCall("db_exec", args)
			if errObj != nil {
				return errObj
			}

			var result sql.Result
			var err error
			if tx != nil {
				result, err = tx.Exec(query, params...)
			} else {
				result, err = db.Exec(query, params...)
			}
			if err != nil {
				return newError(object.HostError, "exec failed: %v", err)
			}

			affected, err := result.RowsAffected()
			if err != nil {
				affected = 0
			}
			return &object.Integer{Value: affected}
		},
	}
}

func funcDbBegin() *object.Builtin {
	return &object.Builtin{
		Name: "db_begin",
		Fn: func(args ...object.Object) object.Object {
			handle, errObj := wantHandle("db_begin", args)
			if errObj != nil {
				return errObj
			}

			dbMu.Lock()
			defer dbMu.Unlock()
			db, ok := dbConnections[handle]
			if !ok {
				return newError(object.HostError, "invalid connection handle %d", handle)
			}
			if _, open := dbTransactions[handle]; open {
				return newError(object.HostError, "transaction already open on handle %d", handle)
			}

			tx, err := db.Begin()
			if err != nil {
				return newError(object.HostError, "begin failed: %v", err)
			}
			dbTransactions[handle] = tx
			return UNIT
		},
	}
}

func funcDbCommit() *object.Builtin {
	return &object.Builtin{
		Name: "db_commit",
		Fn: func(args ...object.Object) object.Object {
			return finishTransaction("db_commit", args, func(tx *sql.Tx) error {
				return tx.Commit()
			})
		},
	}
}

func funcDbRollback() *object.Builtin {
	return &object.Builtin{
		Name: "db_rollback",
		Fn: func(args ...object.Object) object.Object {
			return finishTransaction("db_rollback", args, func(tx *sql.Tx) error {
				return tx.Rollback()
			})
		},
	}
}

func funcDbClose() *object.Builtin {
	return &object.Builtin{
		Name: "db_close",
		Fn: func(args ...object.Object) object.Object {
			handle, errObj := wantHandle("db_close", args)
			if errObj != nil {
				return errObj
			}

			dbMu.Lock()
			defer dbMu.Unlock()
			db, ok := dbConnections[handle]
			if !ok {
				return newError(object.HostError, "invalid connection handle %d", handle)
			}
			if tx, open := dbTransactions[handle]; open {
				tx.Rollback()
				delete(dbTransactions, handle)
			}
			delete(dbConnections, handle)

			if err := db.Close(); err != nil {
				return newError(object.HostError, "close failed: %v", err)
			}
			return UNIT
		},
	}
}

func finishTransaction(name string, args []object.Object, fn func(*sql.Tx) error) object.Object {
	handle, errObj := wantHandle(name, args)
	if errObj != nil {
		return errObj
	}

	dbMu.Lock()
	defer dbMu.Unlock()
	tx, ok := dbTransactions[handle]
	if !ok {
		return newError(object.HostError, "no open transaction on handle %d", handle)
	}
	delete(dbTransactions, handle)

	if err := fn(tx); err != nil {
		return newError(object.HostError, "%s failed: %v", strings.TrimPrefix(name, "db_"), err)
	}
	return UNIT
}

func unpackDbCall(name string, args []object.Object) (*sql.DB, *sql.Tx, string, []interface{}, object.Object) {
	if len(args) < 2 {
		return nil, nil, "", nil, newError(object.ArityMismatch,
			"%s expects at least 2 arguments (handle, sql), got %d", name, len(args))
	}
	handle, errObj := wantHandle(name, args[:1])
	if errObj != nil {
		return nil, nil, "", nil, errObj
	}
	query, errObj := stringArg(name, args[1])
	if errObj != nil {
		return nil, nil, "", nil, errObj
	}

	dbMu.Lock()
	db, ok := dbConnections[handle]
	tx := dbTransactions[handle]
	dbMu.Unlock()
	if !ok {
		return nil, nil, "", nil, newError(object.HostError, "invalid connection handle %d", handle)
	}

	params := make([]interface{}, len(args)-2)
	for i, arg := range args[2:] {
		params[i] = toDriverValue(arg)
	}
	return db, tx, query, params, nil
}

func wantHandle(name string, args []object.Object) (int64, object.Object) {
	if len(args) < 1 {
		return 0, newError(object.ArityMismatch, "%s expects a connection handle", name)
	}
	h, ok := args[0].(*object.Integer)
	if !ok {
		return 0, newError(object.TypeMismatch,
			"first argument to %s must be a connection handle, got %s", name, args[0].Type())
	}
	return h.Value, nil
}

func stringArg(name string, arg object.Object) (string, object.Object) {
	s, ok := arg.(*object.String)
	if !ok {
		return "", newError(object.TypeMismatch,
			"argument to %s must be a string, got %s", name, arg.Type())
	}
	return s.Value, nil
}

func toDriverValue(arg object.Object) interface{} {
	switch arg := arg.(type) {
	case *object.Integer:
		return arg.Value
	case *object.Float:
		return arg.Value
	case *object.Boolean:
		return arg.Value
	case *object.String:
		return arg.Value
	case *object.Unit:
		return nil
	}
	return arg.Inspect()
}

// renderRows maps a result set to an array of maps, one per row, keyed by
// column name in select order.
func renderRows(rows *sql.Rows) object.Object {
	cols, err := rows.Columns()
	if err != nil {
		return newError(object.HostError, "failed to read columns: %v", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return newError(object.HostError, "failed to read column types: %v", err)
	}

	var out []object.Object
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return newError(object.HostError, "scan failed: %v", err)
		}

		row := object.NewMap()
		for i, col := range cols {
			row.Set(col, fromDriverValue(raw[i], types[i].DatabaseTypeName()))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return newError(object.HostError, "row iteration failed: %v", err)
	}

	return &object.Array{Elements: out}
}

func fromDriverValue(v interface{}, dbType string) object.Object {
	switch v := v.(type) {
	case nil:
		return UNIT
	case int64:
		return &object.Integer{Value: v}
	case float64:
		return &object.Float{Value: v}
	case bool:
		return object.NativeBoolToBooleanObject(v)
	case string:
		return &object.String{Value: v}
	case []byte:
		return &object.String{Value: string(v)}
	case time.Time:
		return &object.String{Value: v.Format(time.RFC3339)}
	}
	return &object.String{Value: fmt.Sprintf("%v (%s)", v, dbType)}
}
