package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slopwatch/slopwatch/internal/state"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), ".slopwatch", "audit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecord_AssignsID(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	ev := &Event{Type: EventResolve, Lang: "go", FindingID: "dupes::a.go::X"}
	require.NoError(t, l.Record(ctx, ev))
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())
}

func TestByFinding(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	l.RecordResolution(ctx, "go", "dupes::a.go::X", "open", "fixed", "extracted helper")
	l.RecordResolution(ctx, "go", "dupes::b.go::Y", "open", "wontfix", "intentional")

	events, err := l.ByFinding(ctx, "dupes::a.go::X", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventResolve, events[0].Type)
	assert.Equal(t, "fixed", events[0].NewStatus)
	assert.Equal(t, "extracted helper", events[0].Note)
}

func TestRecordScanAndRecent(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	l.RecordScan(ctx, "go", &state.MergeSummary{ScanID: 1, New: 3, TotalCurrent: 3})
	l.RecordScan(ctx, "go", &state.MergeSummary{ScanID: 2, AutoResolved: 1, TotalCurrent: 3})
	l.RecordScan(ctx, "python", &state.MergeSummary{ScanID: 1, New: 1, TotalCurrent: 1})

	events, err := l.Recent(ctx, "go", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, EventScan, ev.Type)
		assert.Equal(t, "go", ev.Lang)
	}
	assert.Contains(t, events[0].Detail, "auto_resolved=1")
}

func TestRecent_Limit(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		l.RecordScan(ctx, "go", &state.MergeSummary{ScanID: i + 1})
	}
	events, err := l.Recent(ctx, "go", 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}
