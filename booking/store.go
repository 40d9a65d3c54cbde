package booking

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Store persists bookings in PostgreSQL. It also implements the engine's
// rules.StatusWriter and rules.SitterAssigner collaborator contracts, so
// updateStatus and assignSitter directives land here.
type Store struct {
	db *sql.DB
}

// NewStore creates a new PostgreSQL-backed booking store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add inserts a new booking.
func (s *Store) Add(b *Booking) error {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	var scheduledAt any
	if !b.ScheduledAt.IsZero() {
		scheduledAt = b.ScheduledAt
	}

	_, err := s.db.Exec(`
		INSERT INTO bookings (id, client_id, service_type, status, price, sitter_id, sitter_name,
			address, scheduled_at, duration_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11, $12)
	`, b.ID, b.ClientID, b.ServiceType, b.Status, b.Price, b.SitterID, b.SitterName,
		b.Address, scheduledAt, b.DurationMinutes, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	return nil
}

// Get retrieves a booking by ID.
func (s *Store) Get(id string) (*Booking, error) {
	row := s.db.QueryRow(`
		SELECT id, client_id, service_type, status, price, sitter_id, sitter_name,
			address, scheduled_at, duration_minutes, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`, id)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("booking %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return b, nil
}

// ListOpen returns bookings that have not reached a terminal status,
// oldest first. This is the sweep's input set.
func (s *Store) ListOpen() ([]*Booking, error) {
	rows, err := s.db.Query(`
		SELECT id, client_id, service_type, status, price, sitter_id, sitter_name,
			address, scheduled_at, duration_minutes, created_at, updated_at
		FROM bookings
		WHERE status NOT IN ($1, $2)
		ORDER BY created_at ASC
	`, StatusCompleted, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list open bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

// PersistEntityStatus applies a status-transition directive.
// Implements rules.StatusWriter.
func (s *Store) PersistEntityStatus(entityID, newStatus string) error {
	result, err := s.db.Exec(`
		UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3
	`, newStatus, time.Now(), entityID)
	if err != nil {
		return fmt.Errorf("failed to persist status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("booking %s not found", entityID)
	}

	return nil
}

// AssignSitter applies a sitter-assignment directive.
// Implements rules.SitterAssigner.
func (s *Store) AssignSitter(entityID, sitterID string) error {
	result, err := s.db.Exec(`
		UPDATE bookings SET sitter_id = $1, updated_at = $2 WHERE id = $3
	`, sitterID, time.Now(), entityID)
	if err != nil {
		return fmt.Errorf("failed to assign sitter: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("booking %s not found", entityID)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*Booking, error) {
	var b Booking
	var sitterID, sitterName sql.NullString
	var scheduledAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.ClientID,
		&b.ServiceType,
		&b.Status,
		&b.Price,
		&sitterID,
		&sitterName,
		&b.Address,
		&scheduledAt,
		&b.DurationMinutes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.SitterID = sitterID.String
	b.SitterName = sitterName.String
	if scheduledAt.Valid {
		b.ScheduledAt = scheduledAt.Time
	}

	return &b, nil
}
