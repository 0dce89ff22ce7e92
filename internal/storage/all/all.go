// Package all registers every storage backend with the storage factory.
// Import it for side effects.
package all

import (
	_ "tpcxai-loader/internal/storage/mssql"
	_ "tpcxai-loader/internal/storage/mysql"
	_ "tpcxai-loader/internal/storage/postgres"
	_ "tpcxai-loader/internal/storage/sqlite"
)
