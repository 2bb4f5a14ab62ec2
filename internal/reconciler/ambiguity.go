package reconciler

import (
	"fmt"
)

// AmbiguityPolicy decides how a definition is reconciled when it does not
// match exactly one remote entity.
type AmbiguityPolicy string

const (
	// PolicyDeleteAll deletes every match and creates a fresh entity unless
	// exactly one match exists.
	PolicyDeleteAll AmbiguityPolicy = "delete_all"

	// PolicyKeepFirst keeps the first match in platform order, edits it in
	// place and deletes the others.
	PolicyKeepFirst AmbiguityPolicy = "keep_first"
)

func ParseAmbiguityPolicy(value string) (AmbiguityPolicy, error) {
	switch policy := AmbiguityPolicy(value); policy {
	case PolicyDeleteAll, PolicyKeepFirst:
		return policy, nil
	case "":
		return PolicyDeleteAll, nil
	default:
		return "", fmt.Errorf("unknown ambiguity policy %q: %w", value, ErrInvalidDefinition)
	}
}

// resolution is the outcome of matching one definition. keep is nil when a
// new entity has to be created.
type resolution[T any] struct {
	keep   *T
	remove []T
}

// resolveAmbiguousMatches applies policy to the remote entities that share a
// definition's key. Protected entities are never removed and are preferred
// as the kept entity whatever the policy says.
func resolveAmbiguousMatches[T any](policy AmbiguityPolicy, matches []T, protected func(T) bool) resolution[T] {
	var result resolution[T]

	if len(matches) == 0 {
		return result
	}

	keep := -1

	for i, match := range matches {
		if protected(match) {
			keep = i

			break
		}
	}

	if keep == -1 {
		switch policy {
		case PolicyKeepFirst:
			keep = 0
		default:
			if len(matches) == 1 {
				keep = 0
			}
		}
	}

	for i, match := range matches {
		if i == keep {
			result.keep = &matches[i]

			continue
		}

		if protected(match) {
			continue
		}

		result.remove = append(result.remove, match)
	}

	return result
}

func neverProtected[T any](T) bool {
	return false
}
