package database

import (
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	"github.com/ZIPender/pteroCATrustPilotPlugin/config"
	"github.com/ZIPender/pteroCATrustPilotPlugin/internal/cache"

	_ "github.com/lib/pq"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con, Cache: nil}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres connection")
	}
	err = db.Ping()
	if err != nil {
		return nil, errors.Wrap(err, "pinging postgres")
	}
	err = createInvitationTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createInvitationTable creates the invitation log table. The unique
// constraint on (recipient_user_id, subject_id) is what makes concurrent
// scheduling for the same pair safe.
func createInvitationTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS invitations (
			id SERIAL PRIMARY KEY,
			invitation_id TEXT NOT NULL UNIQUE,
			recipient_user_id BIGINT NOT NULL,
			recipient_email TEXT NOT NULL,
			recipient_name TEXT NOT NULL,
			subject_id BIGINT NOT NULL,
			reference_number TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			scheduled_at TIMESTAMP NOT NULL DEFAULT NOW(),
			sent_at TIMESTAMP,
			error_message TEXT,
			raw_response TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (recipient_user_id, subject_id)
		)
	`)
	if err != nil {
		return errors.Wrap(err, "creating invitations table")
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_invitations_status_scheduled
		ON invitations (status, scheduled_at)
	`)
	return errors.Wrap(err, "creating invitations index")
}
