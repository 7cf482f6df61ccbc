package entity

import (
	"fmt"
	"testing"

	"github.com/arloliu/tablemix/internal/model"
	"github.com/arloliu/tablemix/types"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, n, size int) (*model.Model, []*Item, []*Container) {
	t.Helper()

	roles := []string{"P", "A", "C"}
	offices := []string{"NY", "LA"}
	records := make([]types.ItemRecord, n)
	for i := range records {
		records[i] = types.ItemRecord{
			ID:   fmt.Sprintf("id-%d", i),
			Name: fmt.Sprintf("name-%d", i),
			Attributes: map[string]string{
				"Role":   roles[i%len(roles)],
				"Office": offices[i%len(offices)],
			},
		}
	}

	m, err := model.New([]string{"Role", "Office"}, model.Params{MaxContainerSize: size, DefaultWeight: 1}, records)
	require.NoError(t, err)
	items, err := NewItems(m, records)
	require.NoError(t, err)

	return m, items, NewContainers(m)
}

func requireConsistent(t *testing.T, containers []*Container) {
	t.Helper()
	for _, c := range containers {
		require.NoError(t, c.Verify())
		for attr := range c.counts {
			sum := 0
			for _, n := range c.Counts(attr) {
				sum += n
			}
			require.Equal(t, c.Size(), sum, "container %d attr %d", c.ID(), attr)
		}
	}
}

func TestNewItems(t *testing.T) {
	_, items, containers := fixture(t, 7, 3)
	require.Len(t, items, 7)
	require.Len(t, containers, 3)

	it := items[4]
	require.Equal(t, 4, it.Index())
	require.Equal(t, "id-4", it.ID())
	require.Equal(t, "name-4", it.Name())
	require.Nil(t, it.Container())
	require.Equal(t, Unassigned, it.ContainerID())
	require.Equal(t, Unassigned, it.BestScore())
	require.Equal(t, Unassigned, it.BestPenalty())
}

func TestContainer_AddRemove(t *testing.T) {
	_, items, containers := fixture(t, 6, 3)
	c0, c1 := containers[0], containers[1]

	t.Run("add updates both sides", func(t *testing.T) {
		require.NoError(t, c0.Add(items[0]))
		requireConsistent(t, containers)
		require.NoError(t, c0.Add(items[1]))
		requireConsistent(t, containers)

		require.Equal(t, 2, c0.Size())
		require.True(t, c0.Contains(items[0]))
		require.Same(t, c0, items[0].Container())
		require.Equal(t, 1, c0.Count(0, items[0].Value(0)))
	})

	t.Run("add twice fails and leaves state intact", func(t *testing.T) {
		err := c0.Add(items[0])
		require.ErrorIs(t, err, types.ErrAlreadyMember)
		require.Equal(t, 2, c0.Size())
		requireConsistent(t, containers)
	})

	t.Run("add to second container fails", func(t *testing.T) {
		err := c1.Add(items[0])
		require.ErrorIs(t, err, types.ErrAlreadyAssigned)
		require.Equal(t, 0, c1.Size())
		require.Same(t, c0, items[0].Container())
		requireConsistent(t, containers)
	})

	t.Run("remove non-member fails", func(t *testing.T) {
		err := c1.Remove(items[0])
		require.ErrorIs(t, err, types.ErrNotMember)
		err = c0.Remove(items[5])
		require.ErrorIs(t, err, types.ErrNotMember)
		requireConsistent(t, containers)
	})

	t.Run("remove updates both sides", func(t *testing.T) {
		require.NoError(t, c0.Remove(items[0]))
		requireConsistent(t, containers)
		require.Nil(t, items[0].Container())
		require.False(t, c0.Contains(items[0]))
		require.Equal(t, 1, c0.Size())
		require.Same(t, items[1], c0.Members()[0])

		require.ErrorIs(t, c0.Remove(items[0]), types.ErrNotMember)
	})
}

func TestContainer_CacheUnderChurn(t *testing.T) {
	_, items, containers := fixture(t, 12, 4)

	for step := 0; step < 200; step++ {
		it := items[(step*7)%len(items)]
		target := containers[(step*5)%len(containers)]
		if cur := it.Container(); cur != nil {
			require.NoError(t, cur.Remove(it))
		} else {
			require.NoError(t, target.Add(it))
		}
		requireConsistent(t, containers)
	}
}

func TestOccupancy(t *testing.T) {
	_, items, containers := fixture(t, 6, 2)
	lo, hi := Occupancy(containers)
	require.Equal(t, 0, lo)
	require.Equal(t, 0, hi)

	require.NoError(t, containers[0].Add(items[0]))
	require.NoError(t, containers[0].Add(items[1]))
	require.NoError(t, containers[2].Add(items[2]))
	lo, hi = Occupancy(containers)
	require.Equal(t, 0, lo)
	require.Equal(t, 2, hi)

	require.Len(t, UnassignedItems(items), 3)

	lo, hi = Occupancy(nil)
	require.Zero(t, lo)
	require.Zero(t, hi)
}

func TestSnapshotApply(t *testing.T) {
	_, items, containers := fixture(t, 6, 2)
	for i, it := range items {
		require.NoError(t, containers[i%3].Add(it))
	}

	for _, it := range items {
		it.SaveBestScore()
	}
	saved := BestScoreSnapshot(items)
	require.Equal(t, Snapshot(items), saved)

	// Rotate everybody one container forward.
	rotated := make([]int, len(items))
	for i, id := range saved {
		rotated[i] = (id + 1) % 3
	}
	require.NoError(t, Apply(items, containers, rotated))
	requireConsistent(t, containers)
	require.Equal(t, rotated, Snapshot(items))

	require.NoError(t, Apply(items, containers, saved))
	requireConsistent(t, containers)
	require.Equal(t, saved, Snapshot(items))

	t.Run("rejects bad input", func(t *testing.T) {
		require.Error(t, Apply(items, containers, saved[:2]))
		bad := append([]int(nil), saved...)
		bad[0] = 9
		require.Error(t, Apply(items, containers, bad))
		require.Equal(t, saved, Snapshot(items))
	})

	t.Run("unassigned slots", func(t *testing.T) {
		ids := make([]int, len(items))
		for i := range ids {
			ids[i] = Unassigned
		}
		require.NoError(t, Apply(items, containers, ids))
		require.Len(t, UnassignedItems(items), len(items))
		requireConsistent(t, containers)
	})

	t.Run("penalty snapshot is independent", func(t *testing.T) {
		require.NoError(t, Apply(items, containers, saved))
		for _, it := range items {
			it.SaveBestPenalty()
		}
		require.Equal(t, saved, BestPenaltySnapshot(items))
		require.NotEqual(t, saved, rotated)
	})
}
