package mockbackend

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"onboarding-workers/internal/onboarding/form"
)

// ProfileStore keeps the profiles accepted by POST /profile-details.
type ProfileStore interface {
	Add(ctx context.Context, record form.UserRecord) error
	List(ctx context.Context) ([]form.UserRecord, error)
}

type MemoryStore struct {
	mu       sync.Mutex
	profiles []form.UserRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(_ context.Context, record form.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append(s.profiles, record)
	return nil
}

func (s *MemoryStore) List(context.Context) ([]form.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]form.UserRecord(nil), s.profiles...), nil
}

const (
	createProfilesTable = `CREATE TABLE IF NOT EXISTS profile_details (
	id BIGSERIAL PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	phone TEXT NOT NULL,
	corporation_number TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	insertProfile  = `INSERT INTO profile_details (first_name, last_name, phone, corporation_number) VALUES ($1, $2, $3, $4)`
	selectProfiles = `SELECT first_name, last_name, phone, corporation_number FROM profile_details ORDER BY id`
)

// PostgresStore persists profiles in the profile_details table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates the table if it does not exist.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, createProfilesTable); err != nil {
		return nil, fmt.Errorf("create profile_details table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Add(ctx context.Context, r form.UserRecord) error {
	_, err := s.db.ExecContext(ctx, insertProfile, r.FirstName, r.LastName, r.Phone, r.CorporationNumber)
	return err
}

func (s *PostgresStore) List(ctx context.Context) ([]form.UserRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectProfiles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []form.UserRecord
	for rows.Next() {
		var r form.UserRecord
		if err := rows.Scan(&r.FirstName, &r.LastName, &r.Phone, &r.CorporationNumber); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
