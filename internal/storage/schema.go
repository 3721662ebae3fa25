// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for users, attributes, services, daily data, events and logs.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		timezone TEXT,
		bio TEXT,
		url TEXT,
		country TEXT,
		private INTEGER NOT NULL DEFAULT 1,
		imperial_units INTEGER NOT NULL DEFAULT 0,
		weekly_email INTEGER NOT NULL DEFAULT 1,
		is_active INTEGER NOT NULL DEFAULT 1,
		last_seen_activity DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attribute_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		label TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 2,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attributes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		label TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 2,
		value_type INTEGER NOT NULL DEFAULT 0,
		group_id TEXT REFERENCES attribute_groups(id),
		private_default INTEGER NOT NULL DEFAULT 0,
		correlation_offset INTEGER NOT NULL DEFAULT 0,
		correlation_positive TEXT,
		correlation_negative TEXT,
		correlation_priority INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS services (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT,
		provides TEXT,
		requirements TEXT,
		settings INTEGER NOT NULL DEFAULT 0,
		external INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS service_attributes (
		service_id TEXT NOT NULL REFERENCES services(id) ON DELETE CASCADE,
		attribute_id TEXT NOT NULL REFERENCES attributes(id) ON DELETE CASCADE,
		PRIMARY KEY (service_id, attribute_id)
	);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		service_id TEXT NOT NULL REFERENCES services(id) ON DELETE CASCADE,
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, service_id)
	);

	CREATE TABLE IF NOT EXISTS user_attributes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		attribute_id TEXT NOT NULL REFERENCES attributes(id) ON DELETE CASCADE,
		service_id TEXT REFERENCES services(id) ON DELETE SET NULL,
		active INTEGER NOT NULL DEFAULT 1,
		private INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_attribute_data (
		id TEXT PRIMARY KEY,
		user_attribute_id TEXT NOT NULL REFERENCES user_attributes(id) ON DELETE CASCADE,
		day TEXT NOT NULL,
		value_type INTEGER NOT NULL,
		int_value INTEGER,
		float_value REAL,
		string_value TEXT,
		created_at DATETIME NOT NULL,
		UNIQUE (user_attribute_id, day)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		attribute_id TEXT NOT NULL REFERENCES attributes(id) ON DELETE CASCADE,
		time DATETIME NOT NULL,
		value REAL,
		value_type INTEGER NOT NULL DEFAULT 0,
		meta TEXT,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, attribute_id, time)
	);

	CREATE TABLE IF NOT EXISTS user_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		page TEXT NOT NULL,
		action TEXT NOT NULL,
		args TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_user_attributes_unique
		ON user_attributes(user_id, attribute_id, COALESCE(service_id, ''));
	CREATE INDEX IF NOT EXISTS idx_user_attributes_user ON user_attributes(user_id);
	CREATE INDEX IF NOT EXISTS idx_data_user_attribute_day ON user_attribute_data(user_attribute_id, day DESC);
	CREATE INDEX IF NOT EXISTS idx_events_user_time ON events(user_id, time DESC);
	CREATE INDEX IF NOT EXISTS idx_user_logs_created ON user_logs(created_at);
	CREATE INDEX IF NOT EXISTS idx_user_logs_page_action ON user_logs(page, action);
	`

	_, err := d.db.Exec(schema)
	return err
}
