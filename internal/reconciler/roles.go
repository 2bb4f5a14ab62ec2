package reconciler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type roleReconciler struct {
	client RoleClient
	policy AmbiguityPolicy
	logger zerolog.Logger
}

func validateRoleDefinitions(definitions []RoleDefinition) error {
	seen := make(map[string]struct{}, len(definitions))

	for _, definition := range definitions {
		if definition.Name == "" {
			return fmt.Errorf("role without a name: %w", ErrInvalidDefinition)
		}

		if _, ok := seen[definition.Name]; ok {
			return fmt.Errorf("role %q: %w", definition.Name, ErrDuplicateDefinition)
		}

		seen[definition.Name] = struct{}{}
	}

	return nil
}

// reconcile converges the roles in snapshot towards definitions. Roles that
// are not desired are deleted unless they are protected.
func (r *roleReconciler) reconcile(ctx context.Context, snapshot *RoleSnapshot, definitions []RoleDefinition) (report Report, err error) {
	err = validateRoleDefinitions(definitions)
	if err != nil {
		return report, err
	}

	desired := make(map[string]struct{}, len(definitions))

	for _, definition := range definitions {
		desired[definition.Name] = struct{}{}

		operation, err := r.reconcileOne(ctx, snapshot, definition, &report)
		if err != nil {
			return report, err
		}

		report.record(operation)
		recordOperation(ResourceTypeRole, operation)
	}

	for _, role := range snapshot.All() {
		if _, ok := desired[role.Name]; ok {
			continue
		}

		if role.Protected() {
			r.logger.Debug().
				Str("name", role.Name).
				Str("id", role.ID.String()).
				Bool("managed", role.Managed).
				Msg("Keeping protected role")

			continue
		}

		err = r.delete(ctx, role, &report)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

func (r *roleReconciler) reconcileOne(ctx context.Context, snapshot *RoleSnapshot, definition RoleDefinition, report *Report) (Operation, error) {
	result := resolveAmbiguousMatches(r.policy, snapshot.ByName(definition.Name), RemoteRole.Protected)

	for _, role := range result.remove {
		err := r.delete(ctx, role, report)
		if err != nil {
			return "", err
		}
	}

	if result.keep == nil {
		role, err := r.client.CreateRole(ctx, definition)
		if err != nil {
			return "", fmt.Errorf("failed to create role %s: %w", definition.Name, err)
		}

		r.logger.Debug().Str("name", role.Name).Str("id", role.ID.String()).Msg("Created role")

		return OperationCreate, nil
	}

	if result.keep.matches(definition) {
		r.logger.Debug().Str("name", definition.Name).Str("id", result.keep.ID.String()).Msg("Role is up to date")

		return OperationUnchanged, nil
	}

	_, err := r.client.EditRole(ctx, result.keep.ID, definition)
	if err != nil {
		return "", fmt.Errorf("failed to edit role %s (%s): %w", definition.Name, result.keep.ID, err)
	}

	r.logger.Debug().Str("name", definition.Name).Str("id", result.keep.ID.String()).Msg("Edited role")

	return OperationUpdate, nil
}

func (r *roleReconciler) delete(ctx context.Context, role RemoteRole, report *Report) error {
	err := r.client.DeleteRole(ctx, role.ID)
	if err != nil {
		return fmt.Errorf("failed to delete role %s (%s): %w", role.Name, role.ID, err)
	}

	r.logger.Debug().Str("name", role.Name).Str("id", role.ID.String()).Msg("Deleted role")

	report.record(OperationDelete)
	recordOperation(ResourceTypeRole, OperationDelete)

	return nil
}
