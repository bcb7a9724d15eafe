// Package admin aggregates the four privilege-escalated collections into
// derived views. Joins are best-effort string equality on email; the client
// has no foreign keys to lean on, so zero matches is a normal outcome.
// Refresh is all-or-nothing: partial results are never rendered.
package admin

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/larkvale/docdeck/internal/api"
)

// ErrSessionExpired reports that at least one fetch was rejected with
// 401/403; the whole refresh is treated as an expired admin session.
var ErrSessionExpired = errors.New("admin session expired")

// Snapshot is one complete, consistent fetch of the admin collections.
type Snapshot struct {
	Users    []api.AdminUser
	Files    []api.AdminFile
	Chats    []api.AdminChat
	Audit    []api.AuditLogEntry
	LoadedAt time.Time
}

// FetchResults carries the outcome of the four independent fetches issued
// by a refresh.
type FetchResults struct {
	Users []api.AdminUser
	Files []api.AdminFile
	Chats []api.AdminChat
	Audit []api.AuditLogEntry

	UsersErr error
	FilesErr error
	ChatsErr error
	AuditErr error
}

// Merge applies the all-or-nothing policy. Any auth failure wins and maps
// to ErrSessionExpired; otherwise any single failure discards everything
// and surfaces one aggregate error.
func Merge(res FetchResults, now time.Time) (*Snapshot, error) {
	fetchErrs := []error{res.UsersErr, res.FilesErr, res.ChatsErr, res.AuditErr}
	for _, err := range fetchErrs {
		if err != nil && errors.Is(err, api.ErrUnauthorized) {
			return nil, ErrSessionExpired
		}
	}
	for _, err := range fetchErrs {
		if err != nil {
			return nil, fmt.Errorf("refresh failed: %w", err)
		}
	}
	return &Snapshot{
		Users:    res.Users,
		Files:    res.Files,
		Chats:    res.Chats,
		Audit:    res.Audit,
		LoadedAt: now,
	}, nil
}

// KPI holds the headline counters recomputed on every render.
type KPI struct {
	Users        int
	Files        int
	Chats        int
	StorageBytes int64
}

// KPIs derives the headline counters. Never cached.
func (s *Snapshot) KPIs() KPI {
	kpi := KPI{
		Users: len(s.Users),
		Files: len(s.Files),
		Chats: len(s.Chats),
	}
	for _, f := range s.Files {
		kpi.StorageBytes += f.Size
	}
	return kpi
}

// Badge is one of the per-user status markers. The source flags are
// independent booleans, so several badges can apply at once.
type Badge string

const (
	BadgeVerified   Badge = "verified"
	BadgeUnverified Badge = "unverified"
	BadgeSuspended  Badge = "suspended"
	BadgeUploadsOff Badge = "uploads-off"
)

// Badges derives the status markers for one user.
func Badges(u api.AdminUser) []Badge {
	badges := make([]Badge, 0, 3)
	if u.IsVerified {
		badges = append(badges, BadgeVerified)
	} else {
		badges = append(badges, BadgeUnverified)
	}
	if !u.IsActive {
		badges = append(badges, BadgeSuspended)
	}
	if !u.CanUpload {
		badges = append(badges, BadgeUploadsOff)
	}
	return badges
}

// Profile is the per-user panel: the user's own record joined with files
// and chats by email, plus aggregates computed against the render clock.
type Profile struct {
	User         *api.AdminUser
	Files        []api.AdminFile
	Chats        []api.AdminChat
	StorageBytes int64
	LastUpload   time.Duration // zero when no files
	LastQuery    time.Duration // zero when no chats
}

// Profile joins the snapshot's collections for one email. The join
// tolerates zero matches on any side; a user who has never uploaded or
// queried still gets a profile.
func (s *Snapshot) Profile(email string, now time.Time) Profile {
	p := Profile{}
	for i := range s.Users {
		if strings.EqualFold(s.Users[i].Email, email) {
			p.User = &s.Users[i]
			break
		}
	}

	var newestUpload, newestChat time.Time
	for _, f := range s.Files {
		if !strings.EqualFold(f.OwnerEmail, email) {
			continue
		}
		p.Files = append(p.Files, f)
		p.StorageBytes += f.Size
		if f.UploadDate.After(newestUpload) {
			newestUpload = f.UploadDate
		}
	}
	for _, c := range s.Chats {
		if !strings.EqualFold(c.UserEmail, email) {
			continue
		}
		p.Chats = append(p.Chats, c)
		if c.Timestamp.After(newestChat) {
			newestChat = c.Timestamp
		}
	}

	if !newestUpload.IsZero() {
		p.LastUpload = now.Sub(newestUpload)
	}
	if !newestChat.IsZero() {
		p.LastQuery = now.Sub(newestChat)
	}
	return p
}

// FilterUsers is a pure projection over the last snapshot; it never
// refetches. Matches on email or display name, case-insensitive.
func FilterUsers(users []api.AdminUser, q string) []api.AdminUser {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return users
	}
	out := make([]api.AdminUser, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Email), q) ||
			strings.Contains(strings.ToLower(u.Name), q) {
			out = append(out, u)
		}
	}
	return out
}

// FilterFiles matches on filename or owner email, case-insensitive.
func FilterFiles(files []api.AdminFile, q string) []api.AdminFile {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return files
	}
	out := make([]api.AdminFile, 0, len(files))
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Filename), q) ||
			strings.Contains(strings.ToLower(f.OwnerEmail), q) {
			out = append(out, f)
		}
	}
	return out
}

// UserByID looks a user up in the snapshot.
func (s *Snapshot) UserByID(id int) *api.AdminUser {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// TopUsersByStorage returns users ordered by their joined storage usage,
// heaviest first. Used by the dashboard header.
func (s *Snapshot) TopUsersByStorage(limit int) []api.AdminUser {
	usage := make(map[string]int64, len(s.Users))
	for _, f := range s.Files {
		usage[strings.ToLower(f.OwnerEmail)] += f.Size
	}
	users := make([]api.AdminUser, len(s.Users))
	copy(users, s.Users)
	sort.SliceStable(users, func(i, j int) bool {
		return usage[strings.ToLower(users[i].Email)] > usage[strings.ToLower(users[j].Email)]
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users
}
