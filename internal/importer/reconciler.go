package importer

import (
	"context"
	"fmt"
)

// reconcileEntities decides, per group, between update-in-place and staging a
// new entity. All updates run first, then every staged entity is created in
// one bulk insert. The returned map is the authoritative identity key ->
// persisted entity mapping used by review attachment and rating recompute.
//
// Entity write failures are fatal to the whole batch. Writes already applied
// from this batch stay applied; there is no cross-table transaction. Only
// review creation is isolated per row.
func (e *Engine) reconcileEntities(ctx context.Context, tenantID string, groups []Group, existing map[IdentityKey]EntityRef, result *runResult) (map[IdentityKey]EntityRef, error) {
	entities := make(map[IdentityKey]EntityRef, len(groups))

	var stagedPayloads []map[string]interface{}
	var stagedKeys []IdentityKey

	for _, group := range groups {
		updates := e.adapter.Updates(group.Fields)

		if ref, ok := existing[group.Key]; ok {
			if len(updates) > 0 {
				if err := e.entities.Update(ctx, tenantID, ref.ID, updates); err != nil {
					return nil, fmt.Errorf("update %s (row %d): %w", group.Key.Value, group.Row, err)
				}
			}
			entities[group.Key] = ref
			result.updated++
			continue
		}

		stagedPayloads = append(stagedPayloads, updates)
		stagedKeys = append(stagedKeys, group.Key)
	}

	if len(stagedPayloads) > 0 {
		created, err := e.entities.BulkCreate(ctx, tenantID, stagedPayloads)
		if err != nil {
			return nil, fmt.Errorf("bulk create %d entities: %w", len(stagedPayloads), err)
		}
		if len(created) != len(stagedKeys) {
			return nil, fmt.Errorf("bulk create returned %d entities for %d payloads", len(created), len(stagedKeys))
		}
		for i, ref := range created {
			entities[stagedKeys[i]] = ref
		}
		result.created = len(created)
	}

	return entities, nil
}
