package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pestbook/backend/internal/domain"
	"pestbook/backend/internal/store"
)

// AppointmentRepo stores appointments as a JSON array in a single file.
// Every operation re-reads the file, so edits made between calls are seen.
// Writes go to a temp file in the same directory and are renamed into place.
type AppointmentRepo struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewAppointmentRepo(path string) *AppointmentRepo {
	return &AppointmentRepo{path: path, now: time.Now}
}

func (r *AppointmentRepo) Path() string {
	return r.path
}

func (r *AppointmentRepo) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load()
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

func (r *AppointmentRepo) ListByDate(ctx context.Context, date string) ([]domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load()
	if err != nil {
		return nil, err
	}
	return snap.ListAppointments(ctx, date)
}

func (r *AppointmentRepo) Insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load()
	if err != nil {
		return domain.Appointment{}, err
	}
	before := len(snap.Items)

	out, err := store.InsertChecked(ctx, snap, appt, r.now())
	if err != nil {
		return domain.Appointment{}, err
	}
	if len(snap.Items) == before {
		// idempotent replay, nothing to write
		return out, nil
	}
	if err := r.save(snap.Items); err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) DeleteByID(ctx context.Context, id string) (domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.load()
	if err != nil {
		return domain.Appointment{}, err
	}
	deleted, err := snap.DeleteAppointment(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if err := r.save(snap.Items); err != nil {
		return domain.Appointment{}, err
	}
	return deleted, nil
}

func (r *AppointmentRepo) Ping(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.load()
	return err
}

// load reads the collection. A missing file is created empty; unreadable or
// malformed content is reported as ErrStorageUnavailable and left untouched.
func (r *AppointmentRepo) load() (*store.Snapshot, error) {
	b, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := r.save(nil); err != nil {
			return nil, err
		}
		return &store.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", store.ErrStorageUnavailable, r.path, err)
	}

	var items []domain.Appointment
	if len(bytes.TrimSpace(b)) > 0 {
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", store.ErrStorageUnavailable, r.path, err)
		}
	}
	return &store.Snapshot{Items: items}, nil
}

func (r *AppointmentRepo) save(items []domain.Appointment) error {
	if items == nil {
		items = []domain.Appointment{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", store.ErrStorageUnavailable, err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", store.ErrStorageUnavailable, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", store.ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %v", store.ErrStorageUnavailable, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", store.ErrStorageUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", store.ErrStorageUnavailable, tmpName, err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", store.ErrStorageUnavailable, r.path, err)
	}
	return nil
}
