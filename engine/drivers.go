// Wiring SQL drivers in a dedicated file keeps the import list intentional:
// each blank import registers one database/sql backend that BuildURL can
// select via DB_TYPE.
package engine

import (
	_ "github.com/go-sql-driver/mysql"  // "mysql"
	_ "github.com/jackc/pgx/v5/stdlib"  // "pgx"
	_ "github.com/microsoft/go-mssqldb" // "sqlserver"
	_ "modernc.org/sqlite"              // "sqlite" (cgo-free)
)
