package catalog

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Watch loads path into store, then polls the file and reloads it whenever the
// modification time moves forward. Invalid edits are logged and skipped; the
// previous catalog stays in place.
func Watch(ctx context.Context, path string, interval time.Duration, store *Store, logger *zerolog.Logger) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	rooms, err := Load(path)
	if err != nil {
		return err
	}
	store.Replace(rooms)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				lastMod = info.ModTime()
				rooms, err := Load(path)
				if err != nil {
					logger.Warn().Err(err).Str("path", path).Msg("rooms reload failed, keeping previous catalog")
					continue
				}
				store.Replace(rooms)
				logger.Info().Int("rooms", len(rooms)).Msg("rooms reloaded")
			}
		}
	}()

	return nil
}
