package port

import "context"

// ResolvedIdentity is the display-name decoration an external identity
// provider returns for a username (C. SUPPLEMENTED FEATURES).
type ResolvedIdentity struct {
	Username    string
	DisplayName string
	Email       string
}

// IdentityResolver decorates bare usernames with display metadata from an
// external directory. It is a best-effort collaborator: callers must
// degrade to the bare username on error rather than fail the request.
type IdentityResolver interface {
	ResolveOne(ctx context.Context, username string) (*ResolvedIdentity, error)
	ResolveMany(ctx context.Context, usernames []string) ([]ResolvedIdentity, error)
}
