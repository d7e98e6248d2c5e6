package workspace

import (
	"context"
	"log"
	"time"

	"github.com/ziadkadry99/data-alchemist/internal/snapshot"
)

const saveTimeout = 10 * time.Second

// AutoSave saves a snapshot to store after each burst of changes has been
// quiet for the given period. Call Flush on the returned debouncer before
// shutdown to persist pending edits.
func (w *Workspace) AutoSave(store snapshot.Store, quiet time.Duration) *snapshot.Debouncer {
	d := snapshot.NewDebouncer(quiet, func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := w.SaveTo(ctx, store); err != nil {
			log.Printf("workspace: autosave failed: %v", err)
		}
	})
	w.OnChange(func(ev Event) {
		// Restores come from the store; saving them again adds nothing.
		if ev.Kind == EventRestored {
			return
		}
		d.Trigger()
	})
	return d
}

// SaveTo seals the current state and writes it to store.
func (w *Workspace) SaveTo(ctx context.Context, store snapshot.Store) error {
	s, err := w.Snapshot()
	if err != nil {
		return err
	}
	return store.Save(ctx, s)
}

// LoadFrom restores the latest snapshot in store. It reports false when the
// store is empty.
func (w *Workspace) LoadFrom(ctx context.Context, store snapshot.Store) (bool, error) {
	s, err := store.Load(ctx)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, nil
	}
	if err := w.Restore(*s); err != nil {
		return false, err
	}
	return true, nil
}
