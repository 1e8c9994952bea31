package changelock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGrantedTime_Scan(t *testing.T) {
	want := time.Date(2026, 10, 18, 9, 30, 15, 500000000, time.UTC)
	for _, src := range []any{
		want,
		"2026-10-18 09:30:15.5+00:00",
		"2026-10-18T09:30:15.5Z",
		[]byte("2026-10-18 09:30:15.5"),
	} {
		var g grantedTime
		require.NoError(t, g.Scan(src))
		require.True(t, g.valid)
		require.True(t, want.Equal(g.t), "%v", src)
	}

	var g grantedTime
	require.NoError(t, g.Scan(nil))
	require.False(t, g.valid)
	require.Error(t, g.Scan("yesterday"))
	require.Error(t, g.Scan(42))
}

func TestRecord_String(t *testing.T) {
	require.Equal(t, "unlocked", Record{ID: 1}.String())

	rec := Record{
		ID:       1,
		Locked:   true,
		LockedBy: "host (1)",
		Granted:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.Equal(t, "locked by host (1) since 2026-01-02T03:04:05Z", rec.String())
}

func TestRecordRow_UnlockedDropsHolder(t *testing.T) {
	row := recordRow{id: 1}
	row.lockedBy.String, row.lockedBy.Valid = "stale", true
	require.Equal(t, Record{ID: 1}, row.record())
}
