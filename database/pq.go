package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
	"github.com/sahilchouksey/learning-center-api/config"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// Returns *gorm.DB for GORMStore, *sql.DB for PostgreSQLStore
	GetDB() interface{}
}

// PostgreSQLStore is a plain database/sql connection over lib/pq. It backs
// read-only diagnostics that are easier to express as raw SQL.
type PostgreSQLStore struct {
	db *sql.DB
}

func Start() (*PostgreSQLStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}
	return StartWithDSN(DSN(getEnv))
}

// StartWithDSN opens and pings a lib/pq connection
func StartWithDSN(dsn string) (*PostgreSQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fmt.Println("Unable to Start PostgresSQL Databse.")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Println("Successfully connected to PostgresSQL Database.")
	return &PostgreSQLStore{
		db: db,
	}, nil
}

// Init is a no-op: the schema is owned by GORM AutoMigrate
func (s *PostgreSQLStore) Init() error {
	return nil
}

func (s *PostgreSQLStore) Close() error {
	log.Println("Closing PostgresSQL Database.")
	return s.db.Close()
}

// HealthCheck verifies the database connection is alive
func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}

func (s *PostgreSQLStore) GetDB() interface{} {
	return s.db
}

// OccupancyDrift describes a group whose stored counter disagrees with its
// memberships, or whose active members exceed the capacity
type OccupancyDrift struct {
	GroupID          uint
	GroupName        string
	LearningCenterID uint
	CurrentStudents  int
	ActiveCount      int
	MaxStudents      sql.NullInt64
}

// OverCapacity reports whether the active member count exceeds max_students
func (d OccupancyDrift) OverCapacity() bool {
	return d.MaxStudents.Valid && int64(d.ActiveCount) > d.MaxStudents.Int64
}

// CounterDrift reports whether current_students is out of sync
func (d OccupancyDrift) CounterDrift() bool {
	return d.CurrentStudents != d.ActiveCount
}

const occupancyDriftQuery = `
	SELECT g.id, g.name, g.learning_center_id, g.current_students,
	       COALESCE(a.active_count, 0) AS active_count, g.max_students
	FROM groups g
	LEFT JOIN (
		SELECT group_id, COUNT(*) AS active_count
		FROM group_students
		WHERE status = 'ACTIVE'
		GROUP BY group_id
	) a ON a.group_id = g.id
	WHERE g.current_students <> COALESCE(a.active_count, 0)
	   OR (g.max_students IS NOT NULL AND COALESCE(a.active_count, 0) > g.max_students)
	ORDER BY g.id`

// OccupancyDrift lists every group violating the occupancy ledger
func (s *PostgreSQLStore) OccupancyDrift(ctx context.Context) ([]OccupancyDrift, error) {
	rows, err := s.db.QueryContext(ctx, occupancyDriftQuery)
	if err != nil {
		return nil, apperror.FromDB(err, "group")
	}
	defer rows.Close()

	var drifts []OccupancyDrift
	for rows.Next() {
		var d OccupancyDrift
		if err := rows.Scan(&d.GroupID, &d.GroupName, &d.LearningCenterID, &d.CurrentStudents, &d.ActiveCount, &d.MaxStudents); err != nil {
			return nil, fmt.Errorf("scan occupancy row: %w", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.FromDB(err, "group")
	}
	return drifts, nil
}
