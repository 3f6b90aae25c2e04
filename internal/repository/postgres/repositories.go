package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Groups       *GroupRepository
	Memberships  *MembershipRepository
	Permissions  *PermissionRepository
	Tags         *TagRepository
	Tokens       *APITokenRepository
	Systems      *SystemRepository
	Audit        *AuditRepository
	Integrations *IntegrationRunRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Groups:       NewGroupRepository(pool),
		Memberships:  NewMembershipRepository(pool),
		Permissions:  NewPermissionRepository(pool),
		Tags:         NewTagRepository(pool),
		Tokens:       NewAPITokenRepository(pool),
		Systems:      NewSystemRepository(pool),
		Audit:        NewAuditRepository(pool),
		Integrations: NewIntegrationRunRepository(pool),
	}
}
