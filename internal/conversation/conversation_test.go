// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotsdev/robots-tui/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "robots", "conversations.db"))
	require.NoError(t, err, "OpenSQLite")
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// STORE
// =============================================================================

func TestStoreConversationRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv := model.NewConversation("user-1", "travel")
	conv.Title = "Trip planning"
	require.NoError(t, store.CreateConversation(ctx, conv))

	got, err := store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, "travel", got.AgentID)
	require.Equal(t, "Trip planning", got.Title)
	require.True(t, got.LastSummaryCreatedAt.IsZero(), "fresh conversation has a summary timestamp")
}

func TestStoreGetMissingIsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetConversation(context.Background(), "conv_nope")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.RenameConversation(context.Background(), "conv_nope", "x"), ErrNotFound)
}

func TestStoreMessagesKeepOrderAndKind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv := model.NewConversation("user-1", "games")
	require.NoError(t, store.CreateConversation(ctx, conv))

	first := model.NewUserMessage("hello")
	second := model.NewHiddenUserMessage("board state: ...")
	third := model.NewAgentMessage("hi there")
	for _, msg := range []*model.ChatMessage{first, second, third} {
		require.NoError(t, store.AppendMessage(ctx, conv.ID, msg))
	}

	msgs, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "hello", msgs[0].Content)
	require.Equal(t, "hi there", msgs[2].Content)
	require.True(t, msgs[1].Hidden(), "hidden kind lost on reload")
	require.Equal(t, model.RoleAgent, msgs[2].Role)
}

func TestStoreDeleteCascadesMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv := model.NewConversation("user-1", "news")
	require.NoError(t, store.CreateConversation(ctx, conv))
	require.NoError(t, store.AppendMessage(ctx, conv.ID, model.NewUserMessage("headline?")))

	require.NoError(t, store.DeleteConversation(ctx, conv.ID))
	msgs, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Empty(t, msgs, "messages survived delete")
}

func TestStoreUpdateSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv := model.NewConversation("user-1", "finance")
	require.NoError(t, store.CreateConversation(ctx, conv))

	require.NoError(t, store.UpdateSummary(ctx, conv.ID, "talked about stocks"))
	got, err := store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, "talked about stocks", got.Summary)
	require.False(t, got.LastSummaryCreatedAt.IsZero(), "summary timestamp not set")
}

// =============================================================================
// MANAGER
// =============================================================================

func TestManagerEnsureConversationIsLazyAndSticky(t *testing.T) {
	store := newTestStore(t)
	mgr := NewManager(store, "user-1", Options{})
	ctx := context.Background()

	require.Nil(t, mgr.Active(), "active conversation before first message")

	id1, err := mgr.EnsureConversation(ctx, "travel")
	require.NoError(t, err)
	id2, err := mgr.EnsureConversation(ctx, "travel")
	require.NoError(t, err)
	require.Equal(t, id1, id2, "same agent produced a new conversation")

	// Switching agents starts a fresh conversation.
	id3, err := mgr.EnsureConversation(ctx, "finance")
	require.NoError(t, err)
	require.NotEqual(t, id1, id3, "agent switch reused the old conversation")
}

func TestManagerRecordMessageTitlesOnce(t *testing.T) {
	store := newTestStore(t)
	mgr := NewManager(store, "user-1", Options{})
	ctx := context.Background()
	_, err := mgr.EnsureConversation(ctx, "travel")
	require.NoError(t, err)

	// Hidden messages never title the conversation.
	title, err := mgr.RecordMessage(ctx, model.NewHiddenUserMessage("internal notice"))
	require.NoError(t, err)
	require.Empty(t, title, "hidden message set the title")

	title, err = mgr.RecordMessage(ctx, model.NewUserMessage("Plan a weekend trip to the mountains please"))
	require.NoError(t, err)
	require.NotEmpty(t, title, "first visible user message did not title the conversation")
	require.LessOrEqual(t, len([]rune(title)), 30, "title rune length")

	// Persisted too.
	stored, err := store.GetConversation(ctx, mgr.Active().ID)
	require.NoError(t, err)
	require.Equal(t, title, stored.Title)

	// Second message keeps the title.
	again, err := mgr.RecordMessage(ctx, model.NewUserMessage("and a beach one"))
	require.NoError(t, err)
	require.Empty(t, again, "second message retitled the conversation")
}

func TestManagerRehydrate(t *testing.T) {
	store := newTestStore(t)
	mgr := NewManager(store, "user-1", Options{})
	ctx := context.Background()

	_, err := mgr.EnsureConversation(ctx, "coding")
	require.NoError(t, err)
	_, err = mgr.RecordMessage(ctx, model.NewUserMessage("write me a parser"))
	require.NoError(t, err)
	_, err = mgr.RecordMessage(ctx, model.NewAgentMessage("sure, here it is"))
	require.NoError(t, err)
	id := mgr.Active().ID

	// Fresh manager, same store.
	mgr2 := NewManager(store, "user-1", Options{})
	conv, err := mgr2.Rehydrate(ctx, id)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	require.Equal(t, id, mgr2.Active().ID, "rehydrated conversation is not active")
}

func TestManagerMaybeSummarize(t *testing.T) {
	store := newTestStore(t)
	var calls int
	mgr := NewManager(store, "user-1", Options{
		SummaryThreshold: 4,
		Summarize: func(ctx context.Context, prev string, msgs []string) (string, error) {
			calls++
			require.Empty(t, prev, "previous summary on first fold")
			require.GreaterOrEqual(t, len(msgs), 4, "messages for summary")
			return "rolling summary", nil
		},
	})
	ctx := context.Background()
	_, err := mgr.EnsureConversation(ctx, "travel")
	require.NoError(t, err)

	// Below threshold: no-op.
	mgr.RecordMessage(ctx, model.NewUserMessage("one"))
	mgr.RecordMessage(ctx, model.NewAgentMessage("two"))
	require.NoError(t, mgr.MaybeSummarize(ctx))
	require.Zero(t, calls, "summarizer called below threshold")

	mgr.RecordMessage(ctx, model.NewUserMessage("three"))
	mgr.RecordMessage(ctx, model.NewAgentMessage("four"))
	require.NoError(t, mgr.MaybeSummarize(ctx))
	require.Equal(t, 1, calls)
	require.Equal(t, "rolling summary", mgr.Summary())

	// Counter reset: immediately after a summary nothing new to fold.
	require.NoError(t, mgr.MaybeSummarize(ctx))
	require.Equal(t, 1, calls, "summarizer ran again with no new messages")
}

func TestManagerPrunesOldConversations(t *testing.T) {
	store := newTestStore(t)
	mgr := NewManager(store, "user-1", Options{MaxConversations: 2})
	ctx := context.Background()

	for _, id := range []string{"travel", "finance", "news", "coding"} {
		_, err := mgr.StartNew(ctx, id)
		require.NoError(t, err, "StartNew(%s)", id)
	}

	convs, err := mgr.List(ctx)
	require.NoError(t, err)
	require.LessOrEqual(t, len(convs), 2)
}
