package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larkvale/docdeck/internal/api"
)

func TestBeginRejectsBlankInput(t *testing.T) {
	s := NewSession()

	_, ok := s.Begin("   \t  ")
	require.False(t, ok)
	require.Empty(t, s.Transcript())
	require.False(t, s.Pending())
}

func TestBeginStagesUserMessageAndPlaceholder(t *testing.T) {
	s := NewSession()

	req, ok := s.Begin("  what is in the contract?  ")
	require.True(t, ok)
	require.Equal(t, "what is in the contract?", req.Query)
	require.Nil(t, req.FileIDs)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	require.Equal(t, RoleUser, transcript[0].Role)
	require.Equal(t, "what is in the contract?", transcript[0].Content)
	require.True(t, transcript[1].Typing)
	require.True(t, s.Pending())
}

func TestBeginRejectsOverlappingSubmission(t *testing.T) {
	s := NewSession()

	_, ok := s.Begin("first")
	require.True(t, ok)

	_, ok = s.Begin("second")
	require.False(t, ok)
	require.Len(t, s.Transcript(), 2)
}

func TestBeginScopesToSelection(t *testing.T) {
	s := NewSession()
	s.Toggle(7)
	s.Toggle(3)
	s.Toggle(11)

	req, ok := s.Begin("scoped")
	require.True(t, ok)
	require.Equal(t, []int{3, 7, 11}, req.FileIDs)
}

func TestCompleteReplacesPlaceholderWithAnswer(t *testing.T) {
	s := NewSession()
	_, ok := s.Begin("question")
	require.True(t, ok)

	s.Complete(&api.QueryResponse{
		Answer: "the answer",
		Sources: []api.Source{
			{ChunkIndex: 1}, {ChunkIndex: 4}, {ChunkIndex: 9},
		},
	}, nil)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	require.Equal(t, RoleUser, transcript[0].Role)
	require.Equal(t, RoleAssistant, transcript[1].Role)
	require.Equal(t, "the answer", transcript[1].Content)
	require.False(t, transcript[1].Typing)
	// At most two citations survive into the transcript.
	require.Len(t, transcript[1].Sources, 2)
	require.False(t, s.Pending())
}

func TestCompleteMapsFailureToGenericMessage(t *testing.T) {
	s := NewSession()
	_, ok := s.Begin("question")
	require.True(t, ok)

	s.Complete(nil, errors.New("connection reset by peer"))

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	last := transcript[1]
	require.True(t, last.IsError)
	require.Equal(t, genericErrorMessage, last.Content)
	require.NotContains(t, last.Content, "connection reset")
	require.False(t, s.Pending())
}

func TestCompleteWithoutPendingIsNoop(t *testing.T) {
	s := NewSession()
	_, ok := s.Begin("question")
	require.True(t, ok)
	s.Complete(&api.QueryResponse{Answer: "once"}, nil)

	before := len(s.Transcript())
	s.Complete(&api.QueryResponse{Answer: "twice"}, nil)
	require.Len(t, s.Transcript(), before)
}

func TestToggleIsInvolution(t *testing.T) {
	s := NewSession()
	s.Toggle(5)
	require.True(t, s.Selected(5))
	s.Toggle(5)
	require.False(t, s.Selected(5))
	require.Zero(t, s.SelectionCount())
}

func TestSelectAllAndClearAll(t *testing.T) {
	s := NewSession()
	files := []api.FileRecord{{ID: 1}, {ID: 2}, {ID: 3}}

	s.SelectAll(files)
	require.Equal(t, []int{1, 2, 3}, s.SelectionIDs())

	s.ClearAll()
	require.Zero(t, s.SelectionCount())
}

func TestPruneDropsDeletedFiles(t *testing.T) {
	s := NewSession()
	s.Toggle(1)
	s.Toggle(2)
	s.Toggle(3)

	pruned := s.Prune([]api.FileRecord{{ID: 1}, {ID: 3}})
	require.Equal(t, 1, pruned)
	require.Equal(t, []int{1, 3}, s.SelectionIDs())

	require.Zero(t, s.Prune([]api.FileRecord{{ID: 1}, {ID: 3}}))
}

func TestResetWipesEverything(t *testing.T) {
	s := NewSession()
	s.Toggle(1)
	_, ok := s.Begin("question")
	require.True(t, ok)

	s.Reset()
	require.Empty(t, s.Transcript())
	require.Zero(t, s.SelectionCount())
	require.False(t, s.Pending())

	_, ok = s.Begin("after reset")
	require.True(t, ok)
}
