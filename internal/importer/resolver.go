package importer

import (
	"context"
	"fmt"
)

// resolveIdentities partitions the groups by key kind and issues exactly one
// bulk lookup per partition, producing the identity map every later step
// works from. Lookups are read-only.
//
// If several stored entities share a natural key (the column is not unique),
// the most recently created one wins. The tie-break is deterministic and
// documented behavior: imports always reconcile against the newest entity of
// that name.
func resolveIdentities(ctx context.Context, tenantID string, groups []Group, store EntityStore) (map[IdentityKey]EntityRef, error) {
	var refIDs, naturalKeys []string
	for _, g := range groups {
		switch g.Key.Kind {
		case KeyRefID:
			refIDs = append(refIDs, g.Key.Value)
		case KeyNaturalKey:
			naturalKeys = append(naturalKeys, g.Key.Value)
		}
	}

	existing := make(map[IdentityKey]EntityRef)

	if len(refIDs) > 0 {
		refs, err := store.FindByRefIDs(ctx, tenantID, refIDs)
		if err != nil {
			return nil, fmt.Errorf("bulk lookup by refId: %w", err)
		}
		for _, ref := range refs {
			if ref.RefID == nil {
				continue
			}
			existing[IdentityKey{Kind: KeyRefID, Value: *ref.RefID}] = ref
		}
	}

	if len(naturalKeys) > 0 {
		refs, err := store.FindByNaturalKeys(ctx, tenantID, naturalKeys)
		if err != nil {
			return nil, fmt.Errorf("bulk lookup by natural key: %w", err)
		}
		for _, ref := range refs {
			key := IdentityKey{Kind: KeyNaturalKey, Value: ref.NaturalKey}
			if prev, ok := existing[key]; ok && !ref.CreatedAt.After(prev.CreatedAt) {
				continue
			}
			existing[key] = ref
		}
	}

	return existing, nil
}
