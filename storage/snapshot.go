package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SnapshotWriter stores JSON snapshots of a tournament bracket, one object per event.
type SnapshotWriter struct {
	uploader FileUploader
	now      func() time.Time
}

func NewSnapshotWriter(uploader FileUploader) (*SnapshotWriter, error) {
	if uploader == nil {
		return nil, errors.New("snapshot writer requires an uploader")
	}
	return &SnapshotWriter{uploader: uploader, now: time.Now}, nil
}

// SnapshotKey builds the object key, e.g. brackets/tournament_3/20261019T120000Z_created.json.
func SnapshotKey(tournamentID int, event string, at time.Time) string {
	return fmt.Sprintf("brackets/tournament_%d/%s_%s.json", tournamentID, at.UTC().Format("20060102T150405Z"), event)
}

func (w *SnapshotWriter) Write(ctx context.Context, tournamentID int, event string, payload any) (*UploadResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot for tournament %d: %w", tournamentID, err)
	}
	key := SnapshotKey(tournamentID, event, w.now())
	return w.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
}
