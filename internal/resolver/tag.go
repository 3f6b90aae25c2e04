package resolver

import (
	"context"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/core/port"
)

// TagResolver folds direct tag assignments against the subtag ancestry
// DAG (§4.3): a bearer of a child tag is implicitly a bearer of every
// ancestor tag reachable by climbing Parent edges, and a tag's bearers
// include every bearer reachable by descending to its Child tags. Content
// survives only at the reflexive level (the tag actually assigned);
// every propagated ancestor/descendant entry carries nil content.
type TagResolver struct {
	Tags port.TagRepository
}

// NewTagResolver constructs a TagResolver.
func NewTagResolver(tags port.TagRepository) *TagResolver {
	return &TagResolver{Tags: tags}
}

// TagsOfUser returns the reflexive-transitive closure of tags username
// directly or indirectly bears.
func (r *TagResolver) TagsOfUser(ctx context.Context, username string) ([]domain.EffectiveTagAssignment, error) {
	direct, err := r.Tags.AssignmentsForUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return r.closeUp(ctx, direct)
}

// TagsOfGroup returns the reflexive-transitive closure of tags borne by
// any of the given groups (a group's own direct assignments; callers
// needing a group's inherited tags through subgroup ancestry should pass
// every group in its groups_of result).
func (r *TagResolver) TagsOfGroup(ctx context.Context, groups []domain.GroupRef) ([]domain.EffectiveTagAssignment, error) {
	direct, err := r.Tags.AssignmentsForGroups(ctx, groups)
	if err != nil {
		return nil, err
	}
	return r.closeUp(ctx, direct)
}

func (r *TagResolver) closeUp(ctx context.Context, direct []domain.TagAssignment) ([]domain.EffectiveTagAssignment, error) {
	var out []domain.EffectiveTagAssignment
	for _, a := range direct {
		id := a.ID
		out = append(out, domain.EffectiveTagAssignment{
			ID:       &id,
			Content:  a.Content,
			Username: a.Username,
			Group:    a.Group,
		})

		if err := r.climbTags(ctx, a.Tag, []domain.TagRef{a.Tag}, a.Username, a.Group, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *TagResolver) climbTags(ctx context.Context, from domain.TagRef, path []domain.TagRef, username *string, group *domain.GroupRef, out *[]domain.EffectiveTagAssignment) error {
	edges, err := r.Tags.SubtagEdgesByChild(ctx, from)
	if err != nil {
		return err
	}

	for _, edge := range edges {
		if containsTagRef(path, edge.Parent) {
			continue
		}

		nextPath := append(append([]domain.TagRef{}, path...), edge.Parent)
		*out = append(*out, domain.EffectiveTagAssignment{
			ID:       nil,
			Content:  nil,
			Username: username,
			Group:    group,
		})

		if err := r.climbTags(ctx, edge.Parent, nextPath, username, group, out); err != nil {
			return err
		}
	}

	return nil
}

// TaggedIn returns every direct or indirect bearer of tag: its own direct
// assignments plus the direct assignments of every descendant tag
// reachable by descending Child edges, each content-nulled except the
// entries made directly against tag itself.
func (r *TagResolver) TaggedIn(ctx context.Context, tag domain.TagRef) ([]domain.EffectiveTagAssignment, error) {
	var out []domain.EffectiveTagAssignment
	if err := r.descendTag(ctx, tag, []domain.TagRef{tag}, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TagResolver) descendTag(ctx context.Context, tag domain.TagRef, path []domain.TagRef, reflexive bool, out *[]domain.EffectiveTagAssignment) error {
	direct, err := r.Tags.AssignmentsForTag(ctx, tag)
	if err != nil {
		return err
	}

	for _, a := range direct {
		entry := domain.EffectiveTagAssignment{Username: a.Username, Group: a.Group}
		if reflexive {
			id := a.ID
			entry.ID = &id
			entry.Content = a.Content
		}
		*out = append(*out, entry)
	}

	edges, err := r.Tags.SubtagEdgesByParent(ctx, tag)
	if err != nil {
		return err
	}

	for _, edge := range edges {
		if containsTagRef(path, edge.Child) {
			continue
		}
		nextPath := append(append([]domain.TagRef{}, path...), edge.Child)
		if err := r.descendTag(ctx, edge.Child, nextPath, false, out); err != nil {
			return err
		}
	}

	return nil
}

func containsTagRef(path []domain.TagRef, ref domain.TagRef) bool {
	for _, p := range path {
		if p == ref {
			return true
		}
	}
	return false
}

// TaggedUsers filters TaggedIn's result down to user-borne entries.
func TaggedUsers(entries []domain.EffectiveTagAssignment) []domain.EffectiveTagAssignment {
	var out []domain.EffectiveTagAssignment
	for _, e := range entries {
		if e.Username != nil {
			out = append(out, e)
		}
	}
	return out
}

// TaggedGroups filters TaggedIn's result down to group-borne entries.
func TaggedGroups(entries []domain.EffectiveTagAssignment) []domain.EffectiveTagAssignment {
	var out []domain.EffectiveTagAssignment
	for _, e := range entries {
		if e.Group != nil {
			out = append(out, e)
		}
	}
	return out
}
