package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"socialmall/internal/adapter/api"
	"socialmall/internal/adapter/api/handler"
	apimiddleware "socialmall/internal/adapter/api/middleware"
	"socialmall/internal/adapter/api/router"
	"socialmall/internal/adapter/repository"
	"socialmall/internal/domain/normalize"
	"socialmall/internal/infrastructure/firebase"
	"socialmall/internal/infrastructure/jwtauth"
	"socialmall/internal/infrastructure/ratelimit"
	"socialmall/internal/infrastructure/storage"
	"socialmall/internal/infrastructure/websocket"
	"socialmall/internal/usecase"
	"socialmall/pkg/config"
	"socialmall/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.Environment, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []option.ClientOption
	switch {
	case cfg.ServiceAccountJSON != "":
		logger.Info("Using service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	case cfg.ServiceAccountPath != "":
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		logger.Info("Using service account from file: %s", cfg.ServiceAccountPath)
		opts = append(opts, option.WithCredentialsFile(cfg.ServiceAccountPath))
	default:
		logger.Info("Using application default credentials")
	}

	projectID := cfg.FirebaseProject
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	firestoreClient, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	verifier := newVerifier(ctx, cfg, opts)

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	entityRepo := repository.NewFirestoreEntityRepository(firestoreClient)
	postRepo := repository.NewFirestorePostRepository(firestoreClient)

	normalizer := normalize.New(normalize.Options{
		AssetBaseURL: cfg.AssetBaseURL,
		DevOrigins:   cfg.DevOrigins,
		LogoMarkers:  cfg.PlatformLogoMarkers,
	})

	sessions := usecase.NewSessionStore()
	sessions.StartCleanupRoutine(ctx, 5*time.Minute)

	rateLimiter := ratelimit.NewRateLimiter(ratelimit.Limit{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst})
	rateLimiter.StartCleanupRoutine(ctx, 10*time.Minute)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	inboxUseCase := usecase.NewInboxUseCase(conversationRepo, entityRepo, normalizer, sessions, cfg.MessagePageSize)
	chatUseCase := usecase.NewChatUseCase(conversationRepo, entityRepo, normalizer, sessions, wsManager, rateLimiter, cfg.MessagePageSize)
	threadUseCase := usecase.NewThreadUseCase(postRepo, normalizer, sessions, wsManager)

	handler.Setup(inboxUseCase, chatUseCase, threadUseCase)
	handler.SetupHealthHandler(repository.NewFirestoreHealth(firestoreClient))
	handler.SetupWebSocketHandler(wsManager, cfg.DevOrigins)

	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		handler.SetupFileHandler(storageClient)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)
	router.Setup(e, authMiddleware, rateLimiter)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown: %v", err)
	}

	// Let in-flight optimistic edits settle before the clients close.
	chatUseCase.Wait()
	threadUseCase.Wait()
}

func newVerifier(ctx context.Context, cfg *config.Config, opts []option.ClientOption) apimiddleware.TokenVerifier {
	switch cfg.AuthMode {
	case "firebase":
		app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}
		return firebase.NewFirebaseAuthClient(authClient)
	default:
		if cfg.JWTJWKSURL != "" {
			v, err := jwtauth.NewJWKSVerifier(ctx, cfg.JWTJWKSURL)
			if err != nil {
				log.Fatalf("Failed to load JWKS: %v", err)
			}
			return v
		}
		return jwtauth.NewHMACVerifier(cfg.JWTSecret)
	}
}
