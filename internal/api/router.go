package api

import (
	"net/http"
	"time"

	"github.com/crmforge/crmforge/internal/ai"
	"github.com/crmforge/crmforge/internal/ai/gemini"
	"github.com/crmforge/crmforge/internal/ai/ollama"
	"github.com/crmforge/crmforge/internal/ai/openai"
	"github.com/crmforge/crmforge/internal/api/handler"
	customMiddleware "github.com/crmforge/crmforge/internal/api/middleware"
	"github.com/crmforge/crmforge/internal/automation"
	"github.com/crmforge/crmforge/internal/config"
	"github.com/crmforge/crmforge/internal/notify"
	"github.com/crmforge/crmforge/internal/repository/postgres"
	"github.com/crmforge/crmforge/internal/repository/redis"
	"github.com/crmforge/crmforge/internal/security"
	"github.com/crmforge/crmforge/internal/service"
	"github.com/crmforge/crmforge/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router. The automation
// engine is returned alongside so shutdown can wait for in-flight
// dispatches.
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) (http.Handler, *automation.Engine) {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Security
	verifier := security.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	workspaceRepo := postgres.NewWorkspaceRepository(db)
	memberRepo := postgres.NewMemberRepository(db)
	entityRepo := postgres.NewEntityRepository(db)
	recordRepo := postgres.NewRecordRepository(db)
	relationshipRepo := postgres.NewRelationshipRepository(db)
	automationRepo := postgres.NewAutomationRepository(db)
	activityRepo := postgres.NewActivityRepository(db)

	// Caches and rate limiter
	roleCache := redis.NewRoleCache(redisClient, cfg.Redis.CacheTTL)
	entityCache := redis.NewEntityCache(redisClient, cfg.Redis.CacheTTL)
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)

	// AI router with providers
	aiRouter := ai.NewRouter(cfg.AI.DefaultProvider)
	log.Info().Msgf("Initializing AI providers. Default: %s", cfg.AI.DefaultProvider)

	if cfg.AI.Ollama.Host != "" {
		aiRouter.RegisterProvider(ollama.NewProvider(cfg.AI.Ollama.Host, cfg.AI.Ollama.DefaultModel))
	}
	if cfg.AI.OpenAI.APIKey != "" {
		aiRouter.RegisterProvider(openai.NewProvider(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.Model))
	}
	if cfg.AI.Gemini.APIKey != "" {
		aiRouter.RegisterProvider(gemini.NewProvider(cfg.AI.Gemini))
	}

	// Email sender: real SMTP relay when configured, log sink otherwise
	var emailSender notify.EmailSender
	if cfg.SMTP.Enabled() {
		emailSender = notify.NewSMTPSender(cfg.SMTP)
	} else {
		log.Warn().Msg("SMTP host not configured, email actions will be logged only")
		emailSender = notify.NewLogSender(log.Logger)
	}

	// Services
	validator := validation.New()
	authorizer := service.NewAuthorizer(memberRepo, roleCache)
	workspaceService := service.NewWorkspaceService(workspaceRepo, authorizer)
	memberService := service.NewMemberService(memberRepo, userRepo, authorizer)
	entityService := service.NewEntityService(entityRepo, entityCache, validator, authorizer)
	recordService := service.NewRecordService(recordRepo, activityRepo, entityService, validator, authorizer)
	relationshipService := service.NewRelationshipService(relationshipRepo, recordRepo, authorizer)
	activityService := service.NewActivityService(activityRepo, recordRepo, authorizer)
	generatorService := service.NewGeneratorService(aiRouter, workspaceService, entityService, log.Logger)

	// Automation engine. The runner mutates records through the record
	// service, which is why the engine is attached after construction.
	runner := automation.NewRunner(
		recordService,
		emailSender,
		automation.NewWebhookDispatcher(cfg.Security.WebhookTimeout),
		service.NewRouterText(aiRouter),
	)
	engine := automation.NewEngine(automationRepo, runner, log.Logger, automation.WithAsyncDispatch())
	recordService.SetEngine(engine)

	automationService := service.NewAutomationService(automationRepo, recordRepo, entityService, engine, authorizer)

	// Handlers
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService)
	memberHandler := handler.NewMemberHandler(memberService)
	entityHandler := handler.NewEntityHandler(entityService)
	recordHandler := handler.NewRecordHandler(recordService)
	relationshipHandler := handler.NewRelationshipHandler(relationshipService)
	automationHandler := handler.NewAutomationHandler(automationService)
	activityHandler := handler.NewActivityHandler(activityService)
	generateHandler := handler.NewGenerateHandler(generatorService)

	// Middleware
	authMiddleware := customMiddleware.NewAuthMiddleware(verifier, userRepo)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		// Health checks (public)
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/ai-providers", handler.ListAIProviders(aiRouter))

			r.Route("/workspaces", func(r chi.Router) {
				r.Get("/", workspaceHandler.List)
				r.Post("/", workspaceHandler.Create)
				r.Post("/generate", generateHandler.Generate)

				r.Route("/{workspaceID}", func(r chi.Router) {
					r.Use(customMiddleware.WorkspaceContext)

					r.Get("/", workspaceHandler.Get)
					r.Patch("/", workspaceHandler.Update)
					r.Delete("/", workspaceHandler.Delete)

					// Members
					r.Route("/members", func(r chi.Router) {
						r.Get("/", memberHandler.List)
						r.Post("/", memberHandler.Invite)
						r.Patch("/{userID}", memberHandler.ChangeRole)
						r.Delete("/{userID}", memberHandler.Remove)
					})

					// Entities and their records
					r.Route("/entities", func(r chi.Router) {
						r.Get("/", entityHandler.List)
						r.Post("/", entityHandler.Create)

						r.Route("/{entityID}", func(r chi.Router) {
							r.Get("/", entityHandler.Get)
							r.Patch("/", entityHandler.Update)
							r.Delete("/", entityHandler.Delete)

							r.Route("/records", func(r chi.Router) {
								r.Get("/", recordHandler.List)
								r.Post("/", recordHandler.Create)
								r.Post("/search", recordHandler.Search)
								r.Post("/bulk/archive", recordHandler.BulkArchive)
								r.Post("/bulk/delete", recordHandler.BulkDelete)
								r.Post("/bulk/update", recordHandler.BulkUpdate)
							})
						})
					})

					// Records by ID
					r.Route("/records/{recordID}", func(r chi.Router) {
						r.Get("/", recordHandler.Get)
						r.Patch("/", recordHandler.Update)
						r.Delete("/", recordHandler.Delete)
						r.Post("/restore", recordHandler.Restore)

						r.Get("/relationships", relationshipHandler.ListByRecord)
						r.Get("/neighbors", relationshipHandler.Neighbors)
						r.Get("/activities", activityHandler.ListByRecord)
						r.Post("/activities", activityHandler.Create)
					})

					// Activities by ID
					r.Route("/activities/{activityID}", func(r chi.Router) {
						r.Post("/complete", activityHandler.Complete)
						r.Patch("/schedule", activityHandler.Reschedule)
					})

					// Relationships
					r.Route("/relationships", func(r chi.Router) {
						r.Post("/", relationshipHandler.Create)
						r.Delete("/{relationshipID}", relationshipHandler.Delete)
					})

					// Automations
					r.Route("/automations", func(r chi.Router) {
						r.Get("/", automationHandler.List)
						r.Post("/", automationHandler.Create)

						r.Route("/{automationID}", func(r chi.Router) {
							r.Get("/", automationHandler.Get)
							r.Patch("/", automationHandler.Update)
							r.Delete("/", automationHandler.Delete)
							r.Post("/run", automationHandler.RunNow)
							r.Get("/executions", automationHandler.ListExecutions)
						})
					})
				})
			})
		})
	})

	return r, engine
}
