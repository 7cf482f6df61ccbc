package entity

import "fmt"

// Snapshot returns each item's current container id, indexed by item index.
func Snapshot(items []*Item) []int {
	ids := make([]int, len(items))
	for _, it := range items {
		ids[it.index] = it.ContainerID()
	}

	return ids
}

// BestScoreSnapshot returns each item's best-by-score container id.
func BestScoreSnapshot(items []*Item) []int {
	ids := make([]int, len(items))
	for _, it := range items {
		ids[it.index] = it.bestScore
	}

	return ids
}

// BestPenaltySnapshot returns each item's best-by-penalty container id.
func BestPenaltySnapshot(items []*Item) []int {
	ids := make([]int, len(items))
	for _, it := range items {
		ids[it.index] = it.bestPenalty
	}

	return ids
}

// Apply rearranges items so that item i sits in container ids[i].
//
// Items whose slot is Unassigned end up without a container. Every item is first
// removed, then re-added, so the result is independent of the prior arrangement.
//
// Returns:
//   - error: length mismatch, out-of-range container id, or an entity contract error
func Apply(items []*Item, containers []*Container, ids []int) error {
	if len(ids) != len(items) {
		return fmt.Errorf("arrangement has %d slots for %d items", len(ids), len(items))
	}
	for _, id := range ids {
		if id != Unassigned && (id < 0 || id >= len(containers)) {
			return fmt.Errorf("arrangement references container %d of %d", id, len(containers))
		}
	}

	for _, it := range items {
		if it.container == nil {
			continue
		}
		if err := it.container.Remove(it); err != nil {
			return err
		}
	}
	for _, it := range items {
		id := ids[it.index]
		if id == Unassigned {
			continue
		}
		if err := containers[id].Add(it); err != nil {
			return err
		}
	}

	return nil
}
