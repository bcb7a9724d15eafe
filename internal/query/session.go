// Package query maintains a scoped conversational session: the set of
// documents the next query is restricted to, and the transcript as a
// linear append-only log with transient typing state. Everything here is
// memory-only and dies with the session.
package query

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/larkvale/docdeck/internal/api"
	"github.com/larkvale/docdeck/internal/observability"
)

// Role distinguishes the two transcript authors.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Typing marks the transient placeholder
// inserted while a query is in flight; at most one exists at a time and it
// never survives into the final transcript.
type Message struct {
	ID      string
	Role    Role
	Content string
	Sources []api.Source
	IsError bool
	Typing  bool
}

// genericErrorMessage is the only failure text the chat surface ever shows.
// Raw backend errors are logged, never rendered here.
const genericErrorMessage = "Sorry, I ran into a problem answering that. Please try again."

// maxSources caps how many citations an answer carries into the transcript.
const maxSources = 2

// Session is the scoped query state. It is mutated only from the event
// loop's message handlers, so it carries no locking.
type Session struct {
	selection  map[int]struct{}
	transcript []Message
	pendingID  string
}

// NewSession returns an empty session: no selection, no transcript.
func NewSession() *Session {
	return &Session{selection: make(map[int]struct{})}
}

// Toggle flips a file in or out of the selection. Toggling the same id
// twice returns the set to its original state.
func (s *Session) Toggle(fileID int) {
	if _, ok := s.selection[fileID]; ok {
		delete(s.selection, fileID)
	} else {
		s.selection[fileID] = struct{}{}
	}
}

// Selected reports membership.
func (s *Session) Selected(fileID int) bool {
	_, ok := s.selection[fileID]
	return ok
}

// SelectAll replaces the selection with the full id set of the given
// collection.
func (s *Session) SelectAll(files []api.FileRecord) {
	s.selection = make(map[int]struct{}, len(files))
	for _, f := range files {
		s.selection[f.ID] = struct{}{}
	}
}

// ClearAll empties the selection; the next query searches all documents.
func (s *Session) ClearAll() {
	s.selection = make(map[int]struct{})
}

// SelectionIDs returns the selection in ascending order.
func (s *Session) SelectionIDs() []int {
	ids := make([]int, 0, len(s.selection))
	for id := range s.selection {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SelectionCount returns the number of selected documents.
func (s *Session) SelectionCount() int { return len(s.selection) }

// Prune drops selection entries that no longer exist in the refreshed
// collection and returns how many were removed, so the surface can warn
// rather than silently narrowing the scope.
func (s *Session) Prune(files []api.FileRecord) int {
	live := make(map[int]struct{}, len(files))
	for _, f := range files {
		live[f.ID] = struct{}{}
	}
	pruned := 0
	for id := range s.selection {
		if _, ok := live[id]; !ok {
			delete(s.selection, id)
			pruned++
		}
	}
	return pruned
}

// Pending reports whether a typing placeholder is outstanding. The submit
// control stays disabled while it is.
func (s *Session) Pending() bool { return s.pendingID != "" }

// Begin validates and stages a query: appends the user message, inserts
// exactly one typing placeholder, and returns the outgoing request.
// Whitespace-only input and overlapping submissions return ok=false with no
// transcript change and no network call.
func (s *Session) Begin(text string) (api.QueryRequest, bool) {
	text = strings.TrimSpace(text)
	if text == "" || s.pendingID != "" {
		return api.QueryRequest{}, false
	}

	s.transcript = append(s.transcript, Message{
		ID:      uuid.NewString(),
		Role:    RoleUser,
		Content: text,
	})
	s.pendingID = uuid.NewString()
	s.transcript = append(s.transcript, Message{
		ID:     s.pendingID,
		Role:   RoleAssistant,
		Typing: true,
	})

	req := api.QueryRequest{Query: text}
	if len(s.selection) > 0 {
		req.FileIDs = s.SelectionIDs()
	}
	return req, true
}

// Complete resolves the in-flight query: the placeholder is removed exactly
// once, then either the answer or the fixed generic error is appended. The
// transcript order is always [..., user, assistant].
func (s *Session) Complete(resp *api.QueryResponse, err error) {
	if s.pendingID == "" {
		return
	}
	s.removePlaceholder()

	if err != nil {
		observability.Logger().Error("query failed", "error", err)
		s.transcript = append(s.transcript, Message{
			ID:      uuid.NewString(),
			Role:    RoleAssistant,
			Content: genericErrorMessage,
			IsError: true,
		})
		return
	}

	sources := resp.Sources
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	s.transcript = append(s.transcript, Message{
		ID:      uuid.NewString(),
		Role:    RoleAssistant,
		Content: resp.Answer,
		Sources: sources,
	})
}

func (s *Session) removePlaceholder() {
	for i := len(s.transcript) - 1; i >= 0; i-- {
		if s.transcript[i].ID == s.pendingID {
			s.transcript = append(s.transcript[:i], s.transcript[i+1:]...)
			break
		}
	}
	s.pendingID = ""
}

// Transcript returns the append-only message log.
func (s *Session) Transcript() []Message {
	return s.transcript
}

// Reset wipes transcript and selection, used on logout.
func (s *Session) Reset() {
	s.selection = make(map[int]struct{})
	s.transcript = nil
	s.pendingID = ""
}
