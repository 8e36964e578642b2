package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// sessionNamespace scopes name-based session IDs derived from file contents.
var sessionNamespace = uuid.MustParse("4f0b7c1e-5d2a-4c59-9a43-7f6f2f1b9e10")

// Session is one practice session as written by the pose-detection client.
// A file holds either a single session object or an array of them.
type Session struct {
	ID              *uuid.UUID `json:"id,omitempty"`
	PoseName        string     `json:"pose_name"`
	AverageAccuracy float64    `json:"average_accuracy"`
	DurationSeconds int        `json:"duration_seconds"`
	PracticedAt     *time.Time `json:"practiced_at,omitempty"`
}

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SessionsSent     int
	SessionsInserted int
	SessionsRejected int

	UnknownPoses []string
}

// Uploader walks an export directory of session files and POSTs them to the
// PoseFlow server.
type Uploader struct {
	client    *Client
	state     *StateDB
	root      string
	login     string
	dryRun    bool
	batchSize int
	log       *slog.Logger
	stats     Stats
	unknown   map[string]bool
}

// New creates a new Uploader.
func New(client *Client, state *StateDB, root, login string, dryRun bool, batchSize int, log *slog.Logger) *Uploader {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Uploader{
		client:    client,
		state:     state,
		root:      root,
		login:     login,
		dryRun:    dryRun,
		batchSize: batchSize,
		log:       log,
		unknown:   map[string]bool{},
	}
}

// fileInfo tracks a file's metadata for state DB operations.
type fileInfo struct {
	relPath  string
	size     int64
	hash     string
	sessions int
}

// Run executes the upload pipeline.
func (u *Uploader) Run() (*Stats, error) {
	// Fetch catalog from server (skip in dry-run, accept all poses)
	var known map[string]bool
	if !u.dryRun {
		var err error
		known, err = u.client.FetchCatalog()
		if err != nil {
			return &u.stats, fmt.Errorf("fetching catalog: %w", err)
		}
		u.log.Info("fetched catalog", "poses", len(known))
	}

	files, err := u.sessionFiles()
	if err != nil {
		return &u.stats, err
	}

	var batch []Session
	var batchFiles []fileInfo

	for _, f := range files {
		u.stats.FilesTotal++

		relPath, _ := filepath.Rel(u.root, f)
		info, err := os.Stat(f)
		if err != nil {
			u.log.Warn("stat failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		hash, err := HashFile(f)
		if err != nil {
			u.log.Warn("hash failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		uploaded, err := u.state.IsUploaded(relPath, info.Size(), hash)
		if err != nil {
			u.log.Warn("state check failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}
		if uploaded {
			u.stats.FilesSkipped++
			continue
		}

		data, err := os.ReadFile(f)
		if err != nil {
			u.log.Warn("read failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}
		sessions, err := ParseSessions(data)
		if err != nil {
			u.log.Warn("parse failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		accepted := u.filter(relPath, hash, sessions, known)
		batch = append(batch, accepted...)
		batchFiles = append(batchFiles, fileInfo{relPath: relPath, size: info.Size(), hash: hash, sessions: len(accepted)})

		if len(batch) >= u.batchSize {
			if err := u.sendBatch(batch, batchFiles); err != nil {
				return &u.stats, err
			}
			batch = nil
			batchFiles = nil
		}
	}

	if len(batchFiles) > 0 {
		if err := u.sendBatch(batch, batchFiles); err != nil {
			return &u.stats, err
		}
	}

	return &u.stats, nil
}

// sessionFiles lists *.json files under the root, sorted by path.
func (u *Uploader) sessionFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(u.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != u.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", u.root, err)
	}
	return files, nil
}

// filter drops sessions the server would refuse and assigns stable IDs so a
// re-sent file cannot create duplicates. IDs are scoped to the login, so two
// users uploading the same file do not collide.
func (u *Uploader) filter(relPath, hash string, sessions []Session, known map[string]bool) []Session {
	accepted := make([]Session, 0, len(sessions))
	for i, s := range sessions {
		s.PoseName = strings.TrimSpace(s.PoseName)
		switch {
		case s.PoseName == "":
			u.log.Warn("session without pose", "file", relPath, "index", i)
			u.stats.SessionsRejected++
			continue
		case s.AverageAccuracy < 0 || s.AverageAccuracy > 100:
			u.log.Warn("accuracy out of range", "file", relPath, "index", i, "accuracy", s.AverageAccuracy)
			u.stats.SessionsRejected++
			continue
		case known != nil && !known[s.PoseName]:
			if !u.unknown[s.PoseName] {
				u.unknown[s.PoseName] = true
				u.stats.UnknownPoses = append(u.stats.UnknownPoses, s.PoseName)
			}
			u.stats.SessionsRejected++
			continue
		}
		if s.ID == nil {
			id := uuid.NewSHA1(sessionNamespace, []byte(u.login+":"+hash+":"+strconv.Itoa(i)))
			s.ID = &id
		}
		accepted = append(accepted, s)
	}
	return accepted
}

// sendBatch sends sessions and marks their files as uploaded.
func (u *Uploader) sendBatch(sessions []Session, files []fileInfo) error {
	if len(sessions) > 0 {
		if u.dryRun {
			u.log.Info("dry-run: would send sessions", "count", len(sessions))
		} else {
			result, err := u.client.SendSessions(u.login, sessions)
			if err != nil {
				return fmt.Errorf("sending session batch: %w", err)
			}
			u.stats.SessionsInserted += result.Inserted
			u.stats.SessionsRejected += result.Rejected
			for _, e := range result.Errors {
				u.log.Warn("server rejected session", "error", e)
			}
		}
		u.stats.SessionsSent += len(sessions)
	}

	if u.dryRun {
		return nil
	}
	for _, fi := range files {
		if err := u.state.MarkUploaded(fi.relPath, fi.size, fi.hash, fi.sessions); err != nil {
			u.log.Warn("failed to mark uploaded", "file", fi.relPath, "error", err)
		}
		u.stats.FilesUploaded++
	}
	return nil
}

// ParseSessions decodes a session file holding one object or an array.
func ParseSessions(data []byte) ([]Session, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var sessions []Session
		if err := json.Unmarshal(trimmed, &sessions); err != nil {
			return nil, err
		}
		return sessions, nil
	}
	var s Session
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	return []Session{s}, nil
}
