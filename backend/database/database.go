package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/upper/db/v4"
	"github.com/upper/db/v4/adapter/sqlite"
	"vincit.fi/media-preview/common/logger"
)

type TableExist bool

const (
	TableNotExist TableExist = false
	TableExists   TableExist = true
)

type Database struct {
	session db.Session
	dbPath  string
}

func NewInMemoryDatabase() (*Database, error) {
	logger.Info.Printf("Initializing in-memory database")
	var settings = sqlite.ConnectionURL{
		Database: "memory.db",
		Options: map[string]string{
			"mode": "memory",
		},
	}

	session, err := sqlite.Open(settings)
	if err != nil {
		return nil, fmt.Errorf("error opening in-memory database: %w", err)
	}
	// Every connection would get its own empty memory database.
	session.SetMaxOpenConns(1)

	database := &Database{session: session, dbPath: ":memory:"}
	if _, err := database.Migrate(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// NewDatabase opens the sqlite file, creating its directory when needed.
func NewDatabase(file string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, err
	}
	logger.Info.Printf("Initializing database %s", file)
	var settings = sqlite.ConnectionURL{
		Database: file,
	}

	session, err := sqlite.Open(settings)
	if err != nil {
		return nil, fmt.Errorf("error opening database %s: %w", file, err)
	}

	// Get database engine version from session
	var version map[string]interface{}
	if err := session.SQL().Select(db.Func("sqlite_version")).One(&version); err == nil {
		logger.Info.Printf("Database initialized. Using SQLite version %s", version["sqlite_version()"])
	}

	return &Database{session: session, dbPath: file}, nil
}

func (s *Database) Migrate() (TableExist, error) {
	logger.Info.Printf("Running migrations")
	tablesExists := s.doesTablesExists()

	if !tablesExists {
		logger.Info.Print("Initial databases don't exist. Creating...")
		err := s.session.Tx(func(session db.Session) error {
			_, err := session.SQL().Exec(`
				CREATE TABLE migration (
					id TEXT PRIMARY KEY
				)
			`)
			return err
		})

		if err != nil {
			return TableNotExist, fmt.Errorf("error while creating migration table: %w", err)
		}
	}

	logger.Info.Print("Start migrations...")
	if err := s.migrate(); err != nil {
		return TableNotExist, fmt.Errorf("error while running migrations: %w", err)
	}
	logger.Info.Print("All migrations done")

	if tablesExists {
		return TableExists, nil
	} else {
		return TableNotExist, nil
	}
}

func (s *Database) doesTablesExists() bool {
	rows, err := s.session.SQL().Query(`
		SELECT name FROM sqlite_master WHERE type='table' AND name= 'migration';
	`)

	if err != nil {
		return false
	}

	defer rows.Close()
	return rows.Next()
}

func (s *Database) Session() db.Session {
	return s.session
}

func (s *Database) migrate() error {
	return s.session.Tx(func(session db.Session) error {
		if migrationStatusesById, err := s.findAlreadyRunMigrations(session); err != nil {
			return err
		} else {
			for _, migration := range migrations {
				if err := s.runMigration(session, migration, migrationStatusesById); err != nil {
					logger.Error.Print("Failed to run migration ", err)
					return err
				}
			}

			logger.Debug.Printf("Commit migrations")
			return nil
		}
	})
}

func (s *Database) runMigration(session db.Session, migration migration, migrationStatusesById map[MigrationId]bool) error {
	migrationId := migration.id

	logger.Info.Printf("Prepare migration %d: %s", migrationId, migration.description)

	if _, found := migrationStatusesById[migrationId]; found {
		logger.Info.Printf("Migration %d is already done", migrationId)
	} else {
		if statement, err := session.SQL().Prepare(`INSERT INTO migration (id) VALUES (?)`); err != nil {
			return err
		} else {
			logger.Debug.Printf("Mark %d as run", migrationId)
			if _, err := statement.Exec(migrationId); err != nil {
				return err
			}
		}

		logger.Info.Printf("Running migration %d", migration.id)

		if _, err := session.SQL().Exec(migration.query); err != nil {
			return err
		}
	}
	return nil
}

func (s *Database) findAlreadyRunMigrations(session db.Session) (map[MigrationId]bool, error) {
	var runMigrationIds []Migration
	if err := session.Collection("migration").Find().All(&runMigrationIds); err != nil {
		return nil, err
	} else {
		var migrationStatusesById = map[MigrationId]bool{}
		for _, migration := range runMigrationIds {
			migrationStatusesById[migration.Id] = true
		}
		return migrationStatusesById, nil
	}
}

func (s *Database) Close() {
	logger.Info.Printf("Closing database %s", s.dbPath)
	if s.session != nil {
		if err := s.session.Close(); err != nil {
			logger.Error.Print("Error while trying to close database ", err)
		}
	} else {
		logger.Warn.Printf("No database instance to close")
	}
}
