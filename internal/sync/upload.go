package sync

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/larkvale/docdeck/internal/api"
	"github.com/larkvale/docdeck/internal/observability"
)

// UploadState is the client-observable lifecycle of one upload.
type UploadState int

const (
	UploadSubmitted UploadState = iota
	UploadActive
	UploadDone
	UploadFailed
)

// UploadEvent is delivered over the uploader's channel: progress ticks while
// the transfer runs, then exactly one terminal event.
type UploadEvent struct {
	Percent int
	Done    bool
	File    *api.FileRecord
	Err     error
}

// MaxUploadBytes mirrors the backend's size cap so oversized files are
// rejected before any bytes hit the wire.
const MaxUploadBytes int64 = 50 << 20

var allowedExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// ValidateUpload applies the backend's documented limits client-side. The
// backend message still wins for anything not covered here. A maxBytes of
// zero or less falls back to the default cap.
func ValidateUpload(filename string, size, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("file type not allowed (allowed: .pdf, .txt, .md)")
	}
	if size == 0 {
		return errors.New("cannot upload empty file")
	}
	if size > maxBytes {
		return fmt.Errorf("file too large (maximum %s)", humanize.Bytes(uint64(maxBytes)))
	}
	return nil
}

// Uploader drives a single file from submission to a terminal state. Events
// are consumed by a re-issued listen command in the UI event loop, so the
// interface stays responsive for the whole transfer.
type Uploader struct {
	Filename string
	events   chan UploadEvent
}

// StartUpload validates the local file against the configured size cap,
// then launches the transfer. The returned Uploader's channel is closed
// after the terminal event.
func StartUpload(ctx context.Context, client *api.Client, path string, maxBytes int64) (*Uploader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, errors.New("cannot upload a directory")
	}
	filename := filepath.Base(path)
	if err := ValidateUpload(filename, info.Size(), maxBytes); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	u := &Uploader{
		Filename: filename,
		events:   make(chan UploadEvent, 16),
	}

	go u.run(ctx, client, filename, contentType, data)
	return u, nil
}

// Events returns the channel the UI listens on.
func (u *Uploader) Events() <-chan UploadEvent {
	return u.events
}

func (u *Uploader) run(ctx context.Context, client *api.Client, filename, contentType string, data []byte) {
	defer close(u.events)

	log := observability.WithFields("file", filename)
	last := -1
	record, err := client.Upload(ctx, filename, contentType, data, func(percent int) {
		// Progress is monotonically non-decreasing; a transport that stops
		// reporting leaves the last known value in place.
		if percent <= last {
			return
		}
		last = percent
		select {
		case u.events <- UploadEvent{Percent: percent}:
		default:
			// UI has fallen behind on progress ticks; dropping one is fine,
			// the terminal event below is never dropped.
		}
	})
	if err != nil {
		log.Error("upload failed", "error", err)
		u.events <- UploadEvent{Done: true, Err: err}
		return
	}
	log.Info("upload complete", "id", record.ID)
	u.events <- UploadEvent{Percent: 100, Done: true, File: record}
}
