package app

import (
	"context"
	"fmt"
	"time"

	"github.com/procureflow/platform/auth"
	"github.com/procureflow/platform/config"
	"github.com/procureflow/platform/middleware"
	"github.com/procureflow/platform/repositories"
	"github.com/procureflow/platform/repositories/postgres"
	"github.com/procureflow/platform/services/audit"
	"github.com/procureflow/platform/services/credentials"
	"github.com/procureflow/platform/services/identity"
	"github.com/procureflow/platform/services/provision"
	"github.com/procureflow/platform/services/revocation"
	"github.com/procureflow/platform/services/session"
	"github.com/procureflow/platform/services/tenant"
	"github.com/procureflow/platform/services/token"
	"github.com/procureflow/platform/sso"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies holds every constructed collaborator. Built once at startup
// and passed to handlers; nothing is resolved lazily.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	factory *postgres.RepositoryFactory
	DB      *postgres.DB
	Repos   *repositories.Repositories
	Redis   *redis.Client

	Revocation *revocation.Store
	Identity   *identity.Service
	Issuer     *token.Issuer
	Verifier   *credentials.Verifier
	Tenants    *tenant.Resolver
	Provision  *provision.Provisioner
	Audit      *audit.Service
	Session    *session.Facade
	Cookies    *auth.PolicyEngine

	// SSO is nil when no identity provider is configured. Resolved once at
	// startup, never probed per request.
	SSO *sso.Verifier

	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies wires the full object graph
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository factory: %w", err)
	}
	repos := factory.NewRepositories()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("redis connection established", zap.String("addr", cfg.Redis.Addr))

	revocationStore := revocation.NewStore(redisClient, logger)

	auditService := audit.NewService(repos.AuditLogs, logger, audit.DefaultConfig())
	if err := auditService.Start(); err != nil {
		_ = factory.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to start audit service: %w", err)
	}

	identityService := identity.NewService(repos.Identities, repos.Roles, logger)
	issuer := token.NewIssuer(cfg.JWT, identityService, revocationStore, logger)
	verifier := credentials.NewVerifier(repos.LoginAccounts, identityService, logger)
	resolver := tenant.NewResolver(repos.Tenants, logger)
	provisioner := provision.NewProvisioner(repos.Identities, repos.LoginAccounts, repos.Roles, factory.GetTransactionManager(), auditService, logger)

	sessionFacade := session.New(
		verifier,
		issuer,
		revocationStore,
		resolver,
		provisioner,
		identityService,
		auditService,
		logger,
	)

	deps := &Dependencies{
		Config:         cfg,
		Logger:         logger,
		factory:        factory,
		DB:             factory.GetDB(),
		Repos:          repos,
		Redis:          redisClient,
		Revocation:     revocationStore,
		Identity:       identityService,
		Issuer:         issuer,
		Verifier:       verifier,
		Tenants:        resolver,
		Provision:      provisioner,
		Audit:          auditService,
		Session:        sessionFacade,
		Cookies:        auth.NewPolicyEngine(cfg.Cookie, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL),
		AuthMiddleware: middleware.NewAuthMiddleware(sessionFacade, logger),
	}

	if cfg.SSOEnabled() {
		ssoVerifier, err := sso.NewVerifier(ctx, cfg.SSO, logger)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to configure SSO: %w", err)
		}
		deps.SSO = ssoVerifier
		logger.Info("sso configured", zap.String("issuer", cfg.SSO.IssuerURL))
	} else {
		logger.Info("sso not configured, federated login disabled")
	}

	return deps, nil
}

// InitSchema creates database tables if they do not exist
func (d *Dependencies) InitSchema(ctx context.Context) error {
	return d.DB.InitSchema(ctx)
}

// Close releases every resource in reverse construction order
func (d *Dependencies) Close() {
	if d.Audit != nil {
		if err := d.Audit.Stop(10 * time.Second); err != nil {
			d.Logger.Warn("audit service shutdown incomplete", zap.Error(err))
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if d.factory != nil {
		if err := d.factory.Close(); err != nil {
			d.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
