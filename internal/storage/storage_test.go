package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "videobreak/pkg/logx"
)

func run(i int) PlaybackRun {
	return PlaybackRun{
		ID:        fmt.Sprintf("run-%03d", i),
		Trigger:   "schedule",
		StartedAt: time.Date(2026, 3, 14, 9, i, 0, 0, time.UTC),
		TookMS:    int64(i * 100),
		Directory: "/videos",
		Files:     i,
	}
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, d := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: d}, logx.Nop())
		require.NoError(t, err)
		assert.Nil(t, st)
	}
	_, err := Open(Config{Driver: "postgres", Path: "x"}, logx.Nop())
	assert.Error(t, err)
}

func TestDrivers(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"file", "sqlite"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			cfg := Config{Driver: driver, Path: filepath.Join(t.TempDir(), "history.db"), MaxRecords: 5}

			st, err := Open(cfg, logx.Nop())
			require.NoError(t, err)
			require.NotNil(t, st)

			for i := 1; i <= 3; i++ {
				require.NoError(t, st.AppendRun(ctx, run(i)))
			}
			failed := run(4)
			failed.Error = "exit status 1"
			failed.Trigger = "manual"
			require.NoError(t, st.AppendRun(ctx, failed))

			got, err := st.RecentRuns(ctx, 2)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "run-004", got[0].ID)
			assert.Equal(t, "failed", got[0].Outcome())
			assert.Equal(t, "manual", got[0].Trigger)
			assert.Equal(t, "run-003", got[1].ID)
			assert.Equal(t, 300*time.Millisecond, got[1].Took())
			assert.True(t, got[1].StartedAt.Equal(run(3).StartedAt))
			require.NoError(t, st.Close())

			// History survives a reopen.
			st, err = Open(cfg, logx.Nop())
			require.NoError(t, err)
			defer st.Close()
			got, err = st.RecentRuns(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, got, 4)
			assert.Equal(t, "/videos", got[3].Directory)
		})
	}
}

func TestFileStoreCompacts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := Config{Driver: "file", Path: filepath.Join(t.TempDir(), "history.jsonl"), MaxRecords: 3}
	st, err := Open(cfg, logx.Nop())
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		require.NoError(t, st.AppendRun(ctx, run(i)))
	}
	got, err := st.RecentRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "run-010", got[0].ID)
	assert.Equal(t, "run-008", got[2].ID)

	fs := st.(*fileStore)
	assert.Less(t, fs.onDisk, 6)
	require.NoError(t, st.Close())

	st, err = Open(cfg, logx.Nop())
	require.NoError(t, err)
	defer st.Close()
	got, err = st.RecentRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "run-010", got[0].ID)
}

func TestOutcome(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "played", PlaybackRun{Files: 2}.Outcome())
	assert.Equal(t, "skipped", PlaybackRun{Skipped: true}.Outcome())
	assert.Equal(t, "failed", PlaybackRun{Skipped: true, Error: "x"}.Outcome())
}
