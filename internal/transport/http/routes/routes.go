package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hiveiam/hive/internal/auth"
	"github.com/hiveiam/hive/internal/infra/config"
	"github.com/hiveiam/hive/internal/transport/http/handlers"
	"github.com/hiveiam/hive/internal/transport/http/middleware"
	"github.com/hiveiam/hive/internal/usecase"
)

// readPermission is the self-permission every v1 read endpoint requires
// (§6: "required self-permission in brackets").
const readPermission = "api-check-permissions"

// taggedPermission is the self-permission the tagged-listing and
// group-members endpoints require.
const taggedPermission = "api-list-tagged"

// ServiceSet groups the usecases the HTTP layer depends on.
type ServiceSet struct {
	Gate    *usecase.AuthGate
	Queries *usecase.QueryService
	Write   WriteServiceSet
}

// WriteServiceSet groups the write-path usecases behind the admin API
// (§4.1-§4.4). Left zero-valued, the admin API is not registered.
type WriteServiceSet struct {
	Groups      *usecase.GroupUsecase
	Permissions *usecase.PermissionUsecase
	Tags        *usecase.TagUsecase
	Tokens      *usecase.TokenUsecase
	Systems     *usecase.SystemUsecase
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config       *config.AppConfig
	Logger       *zap.Logger
	RateLimiter  *middleware.RateLimiter
	Services     ServiceSet
	Database     DatabaseChecker
	Cache        CacheChecker
	SessionGuard auth.SessionGuard
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Services.Queries != nil && deps.Services.Gate != nil {
		registerV1(r, deps)
		registerLegacy(r, deps)
	}

	if deps.SessionGuard != nil {
		registerAdmin(r, deps)
	}

	handlers.RegisterSwagger(r)

	return r
}

func registerV1(r *gin.Engine, deps Dependencies) {
	query := handlers.NewQueryHandler(deps.Services.Queries)
	gate := deps.Services.Gate

	v1 := r.Group("/api/v1")

	userGroup := v1.Group("/user/:u")
	userGroup.Use(middleware.RequireBearer(gate, readPermission))
	userGroup.GET("/permissions", query.Permissions)
	userGroup.GET("/permission/:p", query.Permission)
	userGroup.GET("/permission/:p/scopes", query.PermissionScopes)
	userGroup.GET("/permission/:p/scope/:s", query.PermissionScope)

	tokenGroup := v1.Group("/token/:sec")
	tokenGroup.Use(middleware.RequireBearerFromPath(gate, readPermission, "sec"))
	tokenGroup.GET("/permissions", query.PermissionsToken)
	tokenGroup.GET("/permission/:p", query.PermissionToken)
	tokenGroup.GET("/permission/:p/scopes", query.PermissionScopesToken)
	tokenGroup.GET("/permission/:p/scope/:s", query.PermissionScopeToken)

	taggedGroup := v1.Group("/tagged/:t")
	taggedGroup.Use(middleware.RequireBearer(gate, taggedPermission))
	taggedGroup.GET("/groups", query.TaggedGroups)
	taggedGroup.GET("/memberships/:u", query.TaggedMemberships)
	taggedGroup.GET("/users", query.TaggedUsers)

	groupGroup := v1.Group("/group/:dom/:id")
	groupGroup.Use(middleware.RequireBearer(gate, taggedPermission))
	groupGroup.GET("/members", query.GroupMembers)
}

func registerLegacy(r *gin.Engine, deps Dependencies) {
	if deps.Config == nil || !deps.Config.LegacyAPI.Enabled {
		return
	}

	legacy := handlers.NewLegacyHandler(deps.Services.Queries, deps.Services.Gate)

	v0 := r.Group("/api/v0")
	v0.Use(buildLegacyRateLimit(deps)...)

	v0.GET("/user/:u", legacy.UserAllSystems)
	v0.GET("/user/:u/:sys", legacy.UserSystem)
	v0.GET("/user/:u/:sys/:perm_key", legacy.UserSystemPerm)

	v0.GET("/token/:sec", legacy.TokenAllSystems)
	v0.GET("/token/:sec/:sys", legacy.TokenSystem)
	v0.GET("/token/:sec/:sys/:perm_key", legacy.TokenSystemPerm)
}

// registerAdmin wires the session-authenticated write API (§4.1-§4.4).
// Every route requires a valid admin session; write-usecases left nil in
// deps.Services.Write are simply not exposed.
func registerAdmin(r *gin.Engine, deps Dependencies) {
	admin := r.Group("/api/admin")
	admin.Use(middleware.RequireSession(deps.SessionGuard))

	write := deps.Services.Write

	if write.Groups != nil {
		groups := handlers.NewGroupHandler(write.Groups)
		admin.POST("/groups", groups.Create)
		admin.PUT("/groups/:dom/:id", groups.Update)
		admin.DELETE("/groups/:dom/:id", groups.Delete)
		admin.POST("/groups/subgroups", groups.AddSubgroup)
		admin.DELETE("/groups/:pdom/:pid/subgroups/:cdom/:cid", groups.RemoveSubgroup)
		admin.POST("/memberships", groups.AddMembership)
		admin.DELETE("/memberships/:id", groups.RemoveMembership)
	}

	if write.Permissions != nil {
		perms := handlers.NewPermissionHandler(write.Permissions)
		admin.POST("/permissions", perms.Create)
		admin.PUT("/permissions/:system/:perm", perms.Update)
		admin.DELETE("/permissions/:system/:perm", perms.Delete)
		admin.POST("/permissions/:system/:perm/assignments", perms.Assign)
		admin.DELETE("/assignments/permissions/:id", perms.Revoke)
	}

	if write.Tags != nil {
		tags := handlers.NewTagHandler(write.Tags)
		admin.POST("/tags", tags.Create)
		admin.PUT("/tags/:system/:tag", tags.Update)
		admin.DELETE("/tags/:system/:tag", tags.Delete)
		admin.POST("/tags/:system/subtags", tags.AddSubtag)
		admin.DELETE("/tags/:system/subtags/:parent/:child", tags.RemoveSubtag)
		admin.POST("/tags/:system/:tag/assignments", tags.Assign)
		admin.DELETE("/assignments/tags/:id", tags.Revoke)
	}

	if write.Tokens != nil {
		tokens := handlers.NewTokenHandler(write.Tokens)
		admin.POST("/tokens", tokens.Create)
		admin.PUT("/tokens/:id", tokens.Update)
		admin.DELETE("/tokens/:id", tokens.Delete)
	}

	if write.Systems != nil {
		systems := handlers.NewSystemHandler(write.Systems)
		admin.POST("/systems", systems.Create)
		admin.PUT("/systems/:id", systems.Update)
		admin.DELETE("/systems/:id", systems.Delete)
	}
}

func buildLegacyRateLimit(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.LegacyAPI.RateLimitPerWindow
	window := deps.Config.LegacyAPI.RateLimitWindow
	if limit <= 0 || window <= 0 {
		return nil
	}

	rule := middleware.RateLimitRule{
		Name:       "legacy_v0",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
