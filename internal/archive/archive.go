package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Uploader writes one object to object storage.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
}

// Archiver stores JSON snapshots of finished tournaments.
type Archiver struct {
	uploader Uploader
	prefix   string
}

func New(uploader Uploader) *Archiver {
	return &Archiver{uploader: uploader, prefix: "tournaments/"}
}

// Key is the object key of a tournament snapshot.
func (a *Archiver) Key(tournamentID int64) string {
	return fmt.Sprintf("%s%d.json", a.prefix, tournamentID)
}

func (a *Archiver) ArchiveTournament(ctx context.Context, tournamentID int64, snapshot any) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tournament %d: %w", tournamentID, err)
	}
	return a.uploader.Upload(ctx, a.Key(tournamentID), "application/json", bytes.NewReader(data))
}
