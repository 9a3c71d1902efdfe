package db

import "database/sql"

// DBProvider is a replication target exposing a SQL handle. DB may return nil
// for a target that is only reachable over REST.
type DBProvider interface {
	DB() *sql.DB
}

var (
	_ DBProvider = (*PostgresClient)(nil)
	_ DBProvider = (*SupabaseClient)(nil)
)
