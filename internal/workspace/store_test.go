package workspace

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/arcview/internal/testutil"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

func newTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	return NewStore(Config{Logger: testutil.NewTestLogger(t)}, limit)
}

func writeTask(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "task.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestStore_GetOrCreate(t *testing.T) {
	s := newTestStore(t, 0)

	id, ws := s.GetOrCreate("")
	require.NotEmpty(t, id)
	require.NotNil(t, ws)

	id2, ws2 := s.GetOrCreate(id)
	assert.Equal(t, id, id2)
	assert.Same(t, ws, ws2)

	id3, ws3 := s.GetOrCreate("stale-id")
	assert.NotEqual(t, "stale-id", id3)
	assert.NotSame(t, ws, ws3)
	assert.Equal(t, 2, s.Len())
}

func TestStore_SeedsFromDefault(t *testing.T) {
	s := newTestStore(t, 0)
	path := writeTask(t, t.TempDir(), threeTrain)
	require.NoError(t, s.ReloadDefault(path))

	_, ws := s.Create()
	v := ws.View()
	assert.Equal(t, path, v.Name)
	assert.Equal(t, 3, v.TrainCount)
}

func TestStore_ReloadDefaultRefreshesUntouchedWorkspaces(t *testing.T) {
	s := newTestStore(t, 0)
	dir := t.TempDir()
	path := writeTask(t, dir, threeTrain)
	require.NoError(t, s.ReloadDefault(path))

	_, showsDefault := s.Create()
	_, uploaded := s.Create()
	require.NoError(t, uploaded.Load("mine.json", []byte(`{"train": [{"input": [[1]], "output": [[2]]}]}`)))

	writeTask(t, dir, `{"train": [], "test": [{"input": [[9]]}]}`)
	require.NoError(t, s.ReloadDefault(path))

	assert.Equal(t, 0, showsDefault.View().TrainCount)
	assert.Equal(t, 1, showsDefault.View().TestCount)
	assert.Equal(t, "mine.json", uploaded.Name())
	assert.Equal(t, 1, uploaded.View().TrainCount)
}

func TestStore_ReloadDefaultFailureKeepsDefault(t *testing.T) {
	s := newTestStore(t, 0)
	dir := t.TempDir()
	path := writeTask(t, dir, threeTrain)
	require.NoError(t, s.ReloadDefault(path))

	writeTask(t, dir, `{"train": [`)
	require.Error(t, s.ReloadDefault(path))

	name, ds := s.Default()
	assert.Equal(t, path, name)
	require.NotNil(t, ds)
	assert.Equal(t, 3, ds.Count(grid.SetTrain))
}

func TestStore_EvictsOldest(t *testing.T) {
	s := newTestStore(t, 2)

	first, _ := s.Create()
	second, ws := s.Create()
	ws.Next() // touch
	third, _ := s.Create()

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get(first)
	assert.False(t, ok)
	_, ok = s.Get(second)
	assert.True(t, ok)
	_, ok = s.Get(third)
	assert.True(t, ok)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore(t, 0)
	id, _ := s.Create()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ws := s.GetOrCreate(id)
			for range 50 {
				ws.Next()
				ws.Previous()
				_ = ws.View()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}
