package main

import (
	"context"
	"net/http"
	"time"

	profilev1 "github.com/antinvestor/apis/go/profile/v1"
	"github.com/antinvestor/service-filemovement/apps/default/config"
	"github.com/antinvestor/service-filemovement/apps/default/service/business"
	"github.com/antinvestor/service-filemovement/apps/default/service/events"
	"github.com/antinvestor/service-filemovement/apps/default/service/handler"
	"github.com/antinvestor/service-filemovement/apps/default/service/queue"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/connection"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/provider"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/repository"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {

	serviceName := "service_file_movement"
	ctx := context.Background()

	cfg, err := frame.ConfigFromEnv[config.MovementConfig]()
	if err != nil {
		util.Log(ctx).With("err", err).Error("could not process configs")
		return
	}

	ctx, svc := frame.NewService(serviceName, frame.WithConfig(&cfg))

	log := svc.Log(ctx)

	serviceOptions := []frame.Option{frame.WithDatastore()}

	// Handle database migration if requested
	if handleDatabaseMigration(ctx, svc, cfg, log) {
		return
	}

	storageProvider, err := provider.GetStorageProvider(ctx, &cfg)
	if err != nil {
		log.WithError(err).Fatal("main -- Could not setup or access storage")
	}

	jwtAudience := cfg.Oauth2JwtVerifyAudience
	if jwtAudience == "" {
		jwtAudience = serviceName
	}

	policy, err := business.LoadPolicy(cfg.WorkflowPolicyFile)
	if err != nil {
		log.WithError(err).Fatal("main -- Could not load the workflow policy")
	}

	profiles, err := profileVerifier(cfg)
	if err != nil {
		log.WithError(err).Fatal("main -- Could not connect to the profile service")
	}

	broadcaster, err := holderBroadcaster(ctx, &cfg)
	if err != nil {
		log.WithError(err).Fatal("main -- Could not connect to redis")
	}
	defer func() { _ = broadcaster.Close() }()

	workflowStore := connection.NewWorkflowDatabase(svc)
	actorLookup := business.NewActorLookup(workflowStore, cfg.ActorCacheSize,
		time.Duration(cfg.ActorCacheTTLSeconds)*time.Second)
	pins := business.NewPinHasher(cfg.PinHashCost)
	cursors := business.NewCursorManager(cfg.CursorSecret)
	limits := business.PageLimits{Default: cfg.DefaultPageLimit, Max: cfg.MaxPageLimit}

	actorService := business.NewActorService(workflowStore, actorLookup, policy, pins, cursors, limits, profiles)

	server := &handler.Server{
		Workflow: business.NewWorkflowService(workflowStore, actorLookup, policy, pins,
			events.NewEventDispatcher(svc), cursors, business.NewWorkflowSettings(&cfg)),
		Mailbox:        business.NewMailboxService(workflowStore, cursors, limits),
		Attachments:    business.NewAttachmentService(workflowStore, storageProvider, actorLookup, policy, int64(cfg.MaxFileSizeBytes)),
		Actors:         actorService,
		ResolveActor:   handler.ClaimsActorResolver,
		MaxUploadBytes: uploadLimit(cfg),
	}

	authServiceHandlers := handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true))(
		svc.AuthenticationMiddleware(server.SetupRoutes(), jwtAudience, cfg.Oauth2JwtVerifyIssuer))

	publicRouter := mux.NewRouter().SkipClean(true)
	publicRouter.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	publicRouter.PathPrefix("/").Handler(authServiceHandlers)

	defaultServer := frame.WithHTTPHandler(publicRouter)
	serviceOptions = append(serviceOptions, defaultServer)

	registeredEvents := frame.WithRegisterEvents(
		events.NewFileHolderChangedHandler(svc, cfg.QueueHolderChangedName),
	)
	serviceOptions = append(serviceOptions, registeredEvents)

	holderChangedQueueHandler, err := queue.NewHolderChangedQueueHandler(broadcaster)
	if err != nil {
		log.WithError(err).Fatal("main -- Could not create the holder changed queue handler")
	}
	holderChangedQueue := frame.WithRegisterSubscriber(cfg.QueueHolderChangedName, cfg.QueueHolderChangedURL, holderChangedQueueHandler)
	holderChangedPublish := frame.WithRegisterPublisher(cfg.QueueHolderChangedName, cfg.QueueHolderChangedURL)
	serviceOptions = append(serviceOptions, holderChangedQueue, holderChangedPublish)

	svc.Init(ctx, serviceOptions...)

	if err = seedAdministrators(ctx, actorService, cfg.BootstrapAdminIDs); err != nil {
		log.WithError(err).Fatal("main -- Could not register bootstrap administrators")
	}

	log.WithField("server http port", cfg.HTTPPort()).
		Info(" Initiating server operations")

	err = svc.Run(ctx, "")
	if err != nil {
		log.WithError(err).Fatal("main -- Could not run Server : %v", err)
	}

}

// handleDatabaseMigration performs database migration if configured to do so.
func handleDatabaseMigration(
	ctx context.Context,
	svc *frame.Service,
	cfg config.MovementConfig,
	log *util.LogEntry,
) bool {
	serviceOptions := []frame.Option{frame.WithDatastore()}

	if cfg.DoDatabaseMigrate() {
		svc.Init(ctx, serviceOptions...)

		err := repository.Migrate(ctx, svc, cfg.GetDatabaseMigrationPath())
		if err != nil {
			log.WithError(err).Fatal("main -- Could not migrate successfully")
		}
		return true
	}
	return false
}

func profileVerifier(cfg config.MovementConfig) (business.ProfileVerifier, error) {
	if cfg.ProfileServiceURI == "" {
		return nil, nil
	}
	conn, err := grpc.NewClient(cfg.ProfileServiceURI, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return business.NewProfileVerifier(profilev1.NewProfileServiceClient(conn)), nil
}

func holderBroadcaster(ctx context.Context, cfg *config.MovementConfig) (queue.Broadcaster, error) {
	if cfg.RedisAddress == "" {
		return queue.NewLogBroadcaster(), nil
	}
	return queue.NewRedisBroadcaster(ctx, cfg)
}

const maxDocumentsPerRequest = 10

// uploadLimit bounds a whole multipart request.
func uploadLimit(cfg config.MovementConfig) int64 {
	if cfg.MaxFileSizeBytes <= 0 {
		return 0
	}
	return int64(cfg.MaxFileSizeBytes) * maxDocumentsPerRequest
}

func seedAdministrators(ctx context.Context, actors business.ActorService, ids []string) error {
	seeds := make([]*types.Actor, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		seeds = append(seeds, &types.Actor{ID: id, Name: id, Role: "ADMIN", Designation: "ADMINISTRATOR"})
	}
	return actors.Seed(ctx, seeds...)
}
