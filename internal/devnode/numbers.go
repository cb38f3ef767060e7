package devnode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-ledd/internal/infrastructure/database"
)

// MaxMinor is the highest minor handed out under one major.
const MaxMinor = 255

// Number is a device number.
type Number struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

func (n Number) String() string {
	return fmt.Sprintf("%d:%d", n.Major, n.Minor)
}

// Owner identifies the process holding a reservation.
type Owner struct {
	Host string `json:"host"`
	PID  int    `json:"pid"`
}

func (o Owner) String() string {
	return fmt.Sprintf("%s/%d", o.Host, o.PID)
}

// CurrentOwner is this process.
func CurrentOwner() Owner {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return Owner{Host: host, PID: os.Getpid()}
}

// Reservation is one row of the device_numbers table.
type Reservation struct {
	Driver     string    `json:"driver"`
	Number     Number    `json:"number"`
	Owner      Owner     `json:"owner"`
	ReservedAt time.Time `json:"reserved_at"`

	// Reclaimed is set when Alloc took over a row the same driver left
	// behind, typically after a crash.
	Reclaimed bool `json:"-"`
}

// NumberStore reserves device numbers in SQLite.
type NumberStore struct {
	db    *database.DB
	major int
	owner Owner

	// alive reports whether pid is a running process on this host.
	alive func(pid int) bool
}

// NewNumberStore returns a store allocating minors under major on behalf
// of the current process.
func NewNumberStore(db *database.DB, major int) *NumberStore {
	return &NumberStore{db: db, major: major, owner: CurrentOwner(), alive: processAlive}
}

// processAlive sends signal 0, which checks existence without delivering
// anything. EPERM means the process exists under another user.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// stale reports whether a row held by o may be taken over. Rows without an
// owner and rows this process already holds are stale; a row owned by
// another host is never stale since its process cannot be checked.
func (s *NumberStore) stale(o Owner) bool {
	switch {
	case o.Host == "":
		return true
	case o.Host != s.owner.Host:
		return false
	case o.PID == s.owner.PID:
		return true
	default:
		return !s.alive(o.PID)
	}
}

// Alloc reserves a number for driver. A row already held by driver is
// reclaimed and its number reused when its owner is gone; a row held by a
// live process fails with ErrRegionInUse. Otherwise the lowest free minor
// is taken.
func (s *NumberStore) Alloc(ctx context.Context, driver string) (Reservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Reservation{}, err
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	now := time.Now().UTC()
	res := Reservation{Driver: driver, Owner: s.owner, ReservedAt: now}

	var holder Owner
	err = tx.QueryRowContext(ctx,
		"SELECT major, minor, owner_host, owner_pid FROM device_numbers WHERE driver = ?", driver,
	).Scan(&res.Number.Major, &res.Number.Minor, &holder.Host, &holder.PID)
	switch {
	case err == nil:
		if !s.stale(holder) {
			return Reservation{}, fmt.Errorf("%w: %s held by %s", ErrRegionInUse, res.Number, holder)
		}
		res.Reclaimed = true
		if _, err := tx.ExecContext(ctx,
			"UPDATE device_numbers SET reserved_at = ?, owner_host = ?, owner_pid = ? WHERE driver = ?",
			now.Format(time.RFC3339), s.owner.Host, s.owner.PID, driver,
		); err != nil {
			return Reservation{}, fmt.Errorf("reclaiming %s: %w", driver, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		minor, err := lowestFreeMinor(ctx, tx, s.major)
		if err != nil {
			return Reservation{}, err
		}
		res.Number = Number{Major: s.major, Minor: minor}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO device_numbers (driver, major, minor, reserved_at, owner_host, owner_pid) VALUES (?, ?, ?, ?, ?, ?)",
			driver, res.Number.Major, res.Number.Minor, now.Format(time.RFC3339), s.owner.Host, s.owner.PID,
		); err != nil {
			return Reservation{}, fmt.Errorf("reserving %s for %s: %w", res.Number, driver, err)
		}
	default:
		return Reservation{}, fmt.Errorf("looking up %s: %w", driver, err)
	}

	if err := tx.Commit(); err != nil {
		return Reservation{}, fmt.Errorf("committing reservation: %w", err)
	}
	return res, nil
}

func lowestFreeMinor(ctx context.Context, tx *sql.Tx, major int) (int, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT minor FROM device_numbers WHERE major = ? ORDER BY minor", major)
	if err != nil {
		return 0, fmt.Errorf("querying device numbers: %w", err)
	}
	defer rows.Close()

	next := 0
	for rows.Next() {
		var minor int
		if err := rows.Scan(&minor); err != nil {
			return 0, fmt.Errorf("scanning device number: %w", err)
		}
		if minor != next {
			break
		}
		next++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating device numbers: %w", err)
	}

	if next > MaxMinor {
		return 0, fmt.Errorf("%w: major %d", ErrRegionExhausted, major)
	}
	return next, nil
}

// Free releases n.
func (s *NumberStore) Free(ctx context.Context, n Number) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM device_numbers WHERE major = ? AND minor = ?", n.Major, n.Minor)
	if err != nil {
		return fmt.Errorf("freeing %s: %w", n, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("freeing %s: %w", n, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotReserved, n)
	}
	return nil
}

// List returns every reservation ordered by number.
func (s *NumberStore) List(ctx context.Context) ([]Reservation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT driver, major, minor, reserved_at, owner_host, owner_pid FROM device_numbers ORDER BY major, minor")
	if err != nil {
		return nil, fmt.Errorf("listing device numbers: %w", err)
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		var reservedAt string
		if err := rows.Scan(&r.Driver, &r.Number.Major, &r.Number.Minor, &reservedAt, &r.Owner.Host, &r.Owner.PID); err != nil {
			return nil, fmt.Errorf("scanning device number: %w", err)
		}
		r.ReservedAt, _ = time.Parse(time.RFC3339, reservedAt) //nolint:errcheck // Format is controlled
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device numbers: %w", err)
	}
	return out, nil
}
