// Package gworkspace implements the one concrete integration carried
// over from the source system: ensuring that the groups tagged for sync
// exist in an external directory. Member lists are not pushed.
package gworkspace

import (
	"context"
	"fmt"

	"github.com/hiveiam/hive/internal/core/domain"
	"github.com/hiveiam/hive/internal/integrations"
	"github.com/hiveiam/hive/internal/resolver"
)

// IntegrationID is the gworkspace integration's slug, also used as its
// system_id: the tags it reads (`sync`, `allow-external`, ...) and the
// tasks it registers both live under this system.
const IntegrationID = "gworkspace"

// SyncToDirectoryTaskID is the one scheduled task the source system
// registers for this integration.
const SyncToDirectoryTaskID = "sync-to-directory"

// DirectoryClient is the external collaborator a concrete deployment
// wires in (a Google Workspace Directory API client, or a no-op for
// dry-run testing). It is intentionally narrow: this task only ever
// needs to reconcile one group's member list.
type DirectoryClient interface {
	// EnsureGroup creates the mirrored group if it does not already
	// exist in the directory.
	EnsureGroup(ctx context.Context, domain, groupID string) error
	// SetMembers replaces the directory group's member list.
	SetMembers(ctx context.Context, domain, groupID string, emails []string) error
}

// Settings configures one run of sync-to-directory.
type Settings struct {
	// DryRun reports every change that would be made without calling
	// Directory.
	DryRun bool
	// PrimaryDomain is where user accounts are looked up and created.
	PrimaryDomain string
}

// Task constructs the sync-to-directory task bound to the given
// collaborators. Registered once per process against integrations.Runner.
func Task(tags *resolver.TagResolver, directory DirectoryClient, settings Settings) integrations.Task {
	return integrations.Task{
		ID: SyncToDirectoryTaskID,
		Func: func(ctx context.Context, monitor *integrations.Monitor) (bool, error) {
			return syncToDirectory(ctx, monitor, tags, directory, settings)
		},
	}
}

func syncToDirectory(ctx context.Context, monitor *integrations.Monitor, tags *resolver.TagResolver, directory DirectoryClient, settings Settings) (bool, error) {
	if settings.DryRun {
		_ = monitor.Log(ctx, domain.IntegrationLogWarning, "dry run is enabled; no directory changes will be made")
	} else {
		_ = monitor.Log(ctx, domain.IntegrationLogWarning, "push mode is selected; all reported changes are real")
	}

	syncTag := domain.TagRef{SystemID: IntegrationID, TagID: "sync"}
	bearers, err := tags.TaggedIn(ctx, syncTag)
	if err != nil {
		_ = monitor.Log(ctx, domain.IntegrationLogError, fmt.Sprintf("listing sync-tagged entities failed: %v", err))
		return false, nil
	}

	groups := resolver.TaggedGroups(bearers)
	succeeded := true

	for _, g := range groups {
		if g.Group == nil {
			continue
		}

		if err := reconcileGroup(ctx, monitor, directory, settings, *g.Group); err != nil {
			succeeded = false
			_ = monitor.Log(ctx, domain.IntegrationLogError, fmt.Sprintf("reconciling %s failed: %v", g.Group.String(), err))
		}
	}

	return succeeded, nil
}

func reconcileGroup(ctx context.Context, monitor *integrations.Monitor, directory DirectoryClient, settings Settings, group domain.GroupRef) error {
	if settings.DryRun {
		return monitor.Log(ctx, domain.IntegrationLogInfo, fmt.Sprintf("would reconcile group %s", group.String()))
	}

	if err := directory.EnsureGroup(ctx, group.Domain, group.ID); err != nil {
		return err
	}

	// Only the group's existence is reconciled: no member emails are
	// resolved and SetMembers is not called, so the directory group's
	// member list is left as it is.
	return monitor.Log(ctx, domain.IntegrationLogInfo, fmt.Sprintf("reconciled group %s", group.String()))
}
