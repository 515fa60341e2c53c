package cache

// schemaSQL defines the SQLite schema.
// Tables:
//   - factions: the raw faction payload per EDSM system id
const schemaSQL = `
CREATE TABLE IF NOT EXISTS factions (
    system_id INTEGER PRIMARY KEY,
    payload TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_factions_fetched_at ON factions(fetched_at);
`

// initSchema creates the database tables and indexes if they don't exist.
func (c *SQLiteStore) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}
