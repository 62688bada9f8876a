package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifier_SyncKeepsIdentity(t *testing.T) {
	n := NewNotifier()

	n.Sync([]Issue{{Key: KeyPortfolio, Message: "Total is below 100% by 10.0%"}})
	first := n.Active()
	require.Len(t, first, 1)

	n.Sync([]Issue{{Key: KeyPortfolio, Message: "Total is below 100% by 10.0%"}})
	second := n.Active()
	require.Len(t, second, 1)
	require.Equal(t, first[0].ID, second[0].ID)
}

func TestNotifier_RewordedIssueGetsNewID(t *testing.T) {
	n := NewNotifier()

	n.Sync([]Issue{{Key: KeyPortfolio, Message: "Total is below 100% by 10.0%"}})
	first := n.Active()[0]

	n.Sync([]Issue{{Key: KeyPortfolio, Message: "Total is below 100% by 5.0%"}})
	second := n.Active()
	require.Len(t, second, 1)
	require.Greater(t, second[0].ID, first.ID)
	require.Equal(t, "Total is below 100% by 5.0%", second[0].Message)
}

func TestNotifier_ClearedIssueIsDropped(t *testing.T) {
	n := NewNotifier()

	n.Sync([]Issue{{Key: KeyPortfolio, Message: "Total is below 100% by 10.0%"}})
	n.Sync(nil)

	require.Empty(t, n.Active())
}

func TestNotifier_DismissMutesUntilMessageChanges(t *testing.T) {
	n := NewNotifier()

	n.Sync([]Issue{{Key: KeyPortfolio, Message: "Total is below 100% by 10.0%"}})
	id := n.Active()[0].ID
	require.True(t, n.Dismiss(id))
	require.Empty(t, n.Active())

	// same message stays quiet
	n.Sync([]Issue{{Key: KeyPortfolio, Message: "Total is below 100% by 10.0%"}})
	require.Empty(t, n.Active())

	// a different message for the same key speaks up again
	n.Sync([]Issue{{Key: KeyPortfolio, Message: "Total is below 100% by 5.0%"}})
	require.Len(t, n.Active(), 1)
}

func TestNotifier_DismissUnknownID(t *testing.T) {
	n := NewNotifier()
	require.False(t, n.Dismiss(42))
}

func TestNotifier_RaiseSurvivesSync(t *testing.T) {
	n := NewNotifier()

	n.Raise("import:data.json", "Could not import data.json")
	n.Sync(nil)
	require.Len(t, n.Active(), 1)

	id := n.Active()[0].ID
	require.True(t, n.Dismiss(id))
	require.Empty(t, n.Active())

	// a dismissed sticky notification can be raised again
	n.Raise("import:data.json", "Could not import data.json")
	require.Len(t, n.Active(), 1)
}

func TestNotifier_EventsAfter(t *testing.T) {
	n := NewNotifier()

	n.Sync([]Issue{
		{Key: KeyPortfolio, Message: "Total is below 100% by 10.0%"},
		{Key: "wallet:w1", Message: "Assets in Stocks are below 100% by 20.0%"},
	})
	all := n.Active()
	require.Len(t, all, 2)

	after := n.EventsAfter(all[0].ID)
	require.Len(t, after, 1)
	require.Equal(t, all[1].ID, after[0].ID)

	require.Empty(t, n.EventsAfter(all[1].ID))
}

func TestNotifier_ActiveSortedByID(t *testing.T) {
	n := NewNotifier()

	n.Raise("a", "first")
	n.Raise("b", "second")
	n.Raise("c", "third")

	active := n.Active()
	require.Len(t, active, 3)
	require.Less(t, active[0].ID, active[1].ID)
	require.Less(t, active[1].ID, active[2].ID)
}
