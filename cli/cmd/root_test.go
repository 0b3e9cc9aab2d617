package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := Cmd()
	require.Equal(t, "powergrid", root.Use)

	groups := map[string][]string{
		"token":    {"transfer", "approve", "mint", "burn", "freeze", "unfreeze", "pause", "snapshot", "balance", "supply"},
		"registry": {"register", "increase-stake", "withdraw-stake", "slash", "heartbeat", "device", "params"},
		"grid":     {"create-event", "participate", "verify", "distribute", "complete", "cancel", "pause", "events", "event", "participations", "totals"},
		"gov":      {"propose", "vote", "finalize", "queue", "execute", "cancel", "proposal"},
		"chain":    {"addresses", "time", "advance", "events", "history"},
		"devnet":   {"serve"},
		"oracle":   {"run"},
	}
	for group, subs := range groups {
		groupCmd, _, err := root.Find([]string{group})
		require.NoError(t, err, group)
		for _, sub := range subs {
			sc, _, err := groupCmd.Find([]string{sub})
			require.NoError(t, err, group+" "+sub)
			require.NotEqual(t, groupCmd, sc, group+" "+sub)
		}
	}
}
