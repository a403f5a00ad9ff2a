package database

import (
	"fmt"
	"log"
	"strings"
)

// Migration is a versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

func getMigrations(d Dialect) []Migration {
	if d == DialectPostgres {
		return postgresMigrations()
	}
	return sqliteMigrations()
}

func postgresMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id SERIAL PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				password TEXT NOT NULL
			)`,
		},
		{
			Version:     2,
			Description: "Create facturas table",
			SQL: `CREATE TABLE IF NOT EXISTS facturas (
				id SERIAL PRIMARY KEY,
				user_id INTEGER NOT NULL REFERENCES users(id),
				codigo TEXT NOT NULL,
				fecha TEXT NOT NULL,
				empresa TEXT NOT NULL,
				cif TEXT NOT NULL,
				base_imponible REAL NOT NULL,
				porcentaje_iva REAL NOT NULL,
				valor_iva REAL NOT NULL,
				total REAL NOT NULL
			)`,
		},
		{
			Version:     3,
			Description: "Create servicios table",
			SQL: `CREATE TABLE IF NOT EXISTS servicios (
				id SERIAL PRIMARY KEY,
				user_id INTEGER NOT NULL REFERENCES users(id),
				fecha TEXT NOT NULL,
				codigo TEXT NOT NULL,
				importe REAL NOT NULL,
				descuento REAL NOT NULL,
				importe_final REAL NOT NULL
			)`,
		},
		{
			Version:     4,
			Description: "Create empresas table",
			SQL: `CREATE TABLE IF NOT EXISTS empresas (
				id SERIAL PRIMARY KEY,
				user_id INTEGER NOT NULL,
				nombre TEXT NOT NULL,
				cif TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE(user_id, nombre)
			)`,
		},
		{
			Version:     5,
			Description: "Create datos_personales table",
			SQL: `CREATE TABLE IF NOT EXISTS datos_personales (
				id SERIAL PRIMARY KEY,
				user_id INTEGER NOT NULL UNIQUE REFERENCES users(id),
				nombre TEXT NOT NULL,
				nif TEXT NOT NULL,
				direccion TEXT,
				codigo_postal TEXT,
				ciudad TEXT,
				provincia TEXT,
				telefono TEXT,
				email TEXT,
				razon_social TEXT,
				updated_at TEXT NOT NULL
			)`,
		},
		{
			Version:     6,
			Description: "Create reset_tokens table",
			SQL: `CREATE TABLE IF NOT EXISTS reset_tokens (
				id SERIAL PRIMARY KEY,
				user_id INTEGER NOT NULL REFERENCES users(id),
				token TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				used INTEGER DEFAULT 0
			)`,
		},
		{
			Version:     7,
			Description: "Create tracker tables",
			SQL: `CREATE TABLE IF NOT EXISTS goals (
				id SERIAL PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT,
				target_date TEXT,
				status TEXT DEFAULT 'active',
				created_at TEXT NOT NULL
			);
			CREATE TABLE IF NOT EXISTS tasks (
				id SERIAL PRIMARY KEY,
				goal_id INTEGER REFERENCES goals(id) ON DELETE CASCADE,
				title TEXT NOT NULL,
				completed INTEGER DEFAULT 0,
				created_at TEXT NOT NULL,
				completed_at TEXT
			);
			CREATE TABLE IF NOT EXISTS progress_logs (
				id SERIAL PRIMARY KEY,
				goal_id INTEGER REFERENCES goals(id) ON DELETE CASCADE,
				note TEXT,
				created_at TEXT NOT NULL
			)`,
		},
		{
			Version:     8,
			Description: "Create indexes",
			SQL: `CREATE INDEX IF NOT EXISTS idx_facturas_user_fecha ON facturas(user_id, fecha);
				CREATE INDEX IF NOT EXISTS idx_servicios_user_fecha ON servicios(user_id, fecha);
				CREATE INDEX IF NOT EXISTS idx_empresas_user_nombre ON empresas(user_id, nombre);
				CREATE INDEX IF NOT EXISTS idx_reset_tokens_token ON reset_tokens(token);
				CREATE INDEX IF NOT EXISTS idx_tasks_goal_id ON tasks(goal_id);
				CREATE INDEX IF NOT EXISTS idx_progress_logs_goal_id ON progress_logs(goal_id)`,
		},
	}
}

func sqliteMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				email TEXT UNIQUE NOT NULL,
				password TEXT NOT NULL
			)`,
		},
		{
			Version:     2,
			Description: "Create facturas table",
			SQL: `CREATE TABLE IF NOT EXISTS facturas (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				codigo TEXT NOT NULL,
				fecha TEXT NOT NULL,
				empresa TEXT NOT NULL,
				cif TEXT NOT NULL,
				base_imponible REAL NOT NULL,
				porcentaje_iva REAL NOT NULL,
				valor_iva REAL NOT NULL,
				total REAL NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id)
			)`,
		},
		{
			Version:     3,
			Description: "Create servicios table",
			SQL: `CREATE TABLE IF NOT EXISTS servicios (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				fecha TEXT NOT NULL,
				codigo TEXT NOT NULL,
				importe REAL NOT NULL,
				descuento REAL NOT NULL,
				importe_final REAL NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id)
			)`,
		},
		{
			Version:     4,
			Description: "Create empresas table",
			SQL: `CREATE TABLE IF NOT EXISTS empresas (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				nombre TEXT NOT NULL COLLATE NOCASE,
				cif TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE(user_id, nombre)
			)`,
		},
		{
			Version:     5,
			Description: "Create datos_personales table",
			SQL: `CREATE TABLE IF NOT EXISTS datos_personales (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL UNIQUE,
				nombre TEXT NOT NULL,
				nif TEXT NOT NULL,
				direccion TEXT,
				codigo_postal TEXT,
				ciudad TEXT,
				provincia TEXT,
				telefono TEXT,
				email TEXT,
				razon_social TEXT,
				updated_at TEXT NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id)
			)`,
		},
		{
			Version:     6,
			Description: "Create reset_tokens table",
			SQL: `CREATE TABLE IF NOT EXISTS reset_tokens (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				token TEXT NOT NULL UNIQUE,
				expires_at TEXT NOT NULL,
				used INTEGER DEFAULT 0,
				FOREIGN KEY (user_id) REFERENCES users(id)
			)`,
		},
		{
			Version:     7,
			Description: "Create tracker tables",
			SQL: `CREATE TABLE IF NOT EXISTS goals (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				description TEXT,
				target_date TEXT,
				status TEXT DEFAULT 'active',
				created_at TEXT NOT NULL
			);
			CREATE TABLE IF NOT EXISTS tasks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				goal_id INTEGER,
				title TEXT NOT NULL,
				completed INTEGER DEFAULT 0,
				created_at TEXT NOT NULL,
				completed_at TEXT,
				FOREIGN KEY (goal_id) REFERENCES goals(id) ON DELETE CASCADE
			);
			CREATE TABLE IF NOT EXISTS progress_logs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				goal_id INTEGER,
				note TEXT,
				created_at TEXT NOT NULL,
				FOREIGN KEY (goal_id) REFERENCES goals(id) ON DELETE CASCADE
			)`,
		},
		{
			Version:     8,
			Description: "Create indexes",
			SQL: `CREATE INDEX IF NOT EXISTS idx_facturas_user_fecha ON facturas(user_id, fecha);
				CREATE INDEX IF NOT EXISTS idx_servicios_user_fecha ON servicios(user_id, fecha);
				CREATE INDEX IF NOT EXISTS idx_empresas_user_nombre ON empresas(user_id, nombre);
				CREATE INDEX IF NOT EXISTS idx_reset_tokens_token ON reset_tokens(token);
				CREATE INDEX IF NOT EXISTS idx_tasks_goal_id ON tasks(goal_id);
				CREATE INDEX IF NOT EXISTS idx_progress_logs_goal_id ON progress_logs(goal_id)`,
		},
	}
}

func (db *DB) createMigrationsTable() error {
	var query string
	if db.dialect == DialectPostgres {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`
	} else {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}
	_, err := db.conn.Exec(query)
	return err
}

func (db *DB) appliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := db.conn.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return applied, err
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return applied, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// runMigrations applies all pending migrations in version order.
func (db *DB) runMigrations() error {
	if err := db.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.appliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range getMigrations(db.dialect) {
		if applied[migration.Version] {
			continue
		}

		log.Printf("applying migration %d: %s", migration.Version, migration.Description)

		for _, stmt := range strings.Split(migration.SQL, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.conn.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
			}
		}

		record := db.dialect.Rebind("INSERT INTO schema_migrations (version) VALUES (?)")
		if _, err := db.conn.Exec(record, migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
