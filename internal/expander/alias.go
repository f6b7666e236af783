package expander

import orcherrors "go-tempo/internal/errors"

// aliasTable maps a template label to the ordered list of ids materialised
// for it (spec.md 4.3 step 3). A label with count=0 has no replicas and
// therefore no entry; a reference to it fails DANGLING_REFERENCE exactly
// like a reference to an unknown label.
type aliasTable map[string][]string

func buildAliasTable(replicas []*replica) aliasTable {
	alias := make(aliasTable)
	for _, r := range replicas {
		alias[r.label] = append(alias[r.label], r.task.ID)
	}
	return alias
}

// resolveScalar implements spec.md 4.3 step 4's scalar resolution rule:
// a reference to a singleton label always resolves; a reference to a
// multiplied label requires the referencing replica to share the same
// replica index, otherwise the reference is ambiguous.
func resolveScalar(alias aliasTable, label string, fromIndex int) (string, error) {
	ids, ok := alias[label]
	if !ok {
		return "", orcherrors.Wrap(orcherrors.ErrDanglingRef, label)
	}
	if len(ids) == 0 {
		return "", orcherrors.Wrap(orcherrors.ErrDanglingRef, label)
	}
	if len(ids) == 1 {
		return ids[0], nil
	}
	// Multiplied label: the referencing task must itself be a replica
	// with a matching index.
	if fromIndex == 0 || fromIndex > len(ids) {
		return "", orcherrors.Wrap(orcherrors.ErrAmbiguousRef, label)
	}
	return ids[fromIndex-1], nil
}

// resolveList implements the list-reference rule: always the full alias
// list, regardless of the referencing task's own multiplicity.
func resolveList(alias aliasTable, label string) ([]string, error) {
	ids, ok := alias[label]
	if !ok {
		return nil, orcherrors.Wrap(orcherrors.ErrDanglingRef, label)
	}
	if len(ids) == 0 {
		return nil, orcherrors.Wrap(orcherrors.ErrDanglingRef, label)
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

func rewriteReferences(replicas []*replica, alias aliasTable) error {
	for _, r := range replicas {
		if r.tmpl.TextTaskID != "" {
			id, err := resolveScalar(alias, r.tmpl.TextTaskID, r.index)
			if err != nil {
				return err
			}
			r.task.InputRefs.TextTaskID = id
		}
		if r.tmpl.SlidePromptID != "" {
			id, err := resolveScalar(alias, r.tmpl.SlidePromptID, r.index)
			if err != nil {
				return err
			}
			r.task.InputRefs.SlidePromptID = id
		}
		if r.tmpl.VoiceTrackID != "" {
			id, err := resolveScalar(alias, r.tmpl.VoiceTrackID, r.index)
			if err != nil {
				return err
			}
			r.task.InputRefs.VoiceTrackID = id
		}
		if r.tmpl.SlideIDsRef != "" {
			ids, err := resolveList(alias, r.tmpl.SlideIDsRef)
			if err != nil {
				return err
			}
			r.task.InputRefs.SlideIDs = ids
		}
	}
	return nil
}

// validateReferences re-checks every label referenced anywhere resolves
// to at least one materialised task (spec.md 4.3 step 7). Rewriting
// already returns the same errors eagerly; this pass exists so a future
// reference field can be validated without duplicating the resolution
// rule, and so tests can assert step 7 independently of step 4.
func validateReferences(replicas []*replica, alias aliasTable) error {
	for _, r := range replicas {
		for _, label := range []string{r.tmpl.TextTaskID, r.tmpl.SlidePromptID, r.tmpl.VoiceTrackID, r.tmpl.SlideIDsRef} {
			if label == "" {
				continue
			}
			if ids, ok := alias[label]; !ok || len(ids) == 0 {
				return orcherrors.Wrap(orcherrors.ErrDanglingRef, label)
			}
		}
	}
	return nil
}
