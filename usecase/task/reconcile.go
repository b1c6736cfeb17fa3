package task

// uniqueIDs drops zero ids and repeats, keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// diffPrerequisites compares the stored targets with the desired set.
// Targets present in both are left out of either result.
func diffPrerequisites(current, desired []int64) (toInsert, toDelete []int64) {
	currentSet := make(map[int64]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	desired = uniqueIDs(desired)
	desiredSet := make(map[int64]struct{}, len(desired))
	for _, id := range desired {
		desiredSet[id] = struct{}{}
		if _, ok := currentSet[id]; !ok {
			toInsert = append(toInsert, id)
		}
	}
	for _, id := range uniqueIDs(current) {
		if _, ok := desiredSet[id]; !ok {
			toDelete = append(toDelete, id)
		}
	}
	return toInsert, toDelete
}
