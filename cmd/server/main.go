package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brokerage/internal/applications"
	"brokerage/internal/claims"
	"brokerage/internal/clients"
	"brokerage/internal/groups"
	"brokerage/internal/insurers"
	"brokerage/internal/jwttoken"
	"brokerage/internal/platform/config"
	"brokerage/internal/platform/httpserver"
	"brokerage/internal/platform/logger"
	"brokerage/internal/platform/metrics"
	"brokerage/internal/platform/mongodb"
	"brokerage/internal/policies"
	"brokerage/internal/risknotes"
	httptransport "brokerage/internal/transport/http"
	"brokerage/internal/users"
	"brokerage/pkg/platform/httputil"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Development())
	httputil.SetDebug(cfg.Development())

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mongodb.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Close(context.Background()); err != nil {
			log.Warn("mongodb disconnect failed", "error", err)
		}
	}()
	db := mongoClient.Database()
	log.Info("connected to mongodb", "database", cfg.MongoDatabase)

	userStore := users.NewMongoStore(db)
	clientStore := clients.NewMongoStore(db)
	groupStore := groups.NewMongoStore(db)
	companyStore := insurers.NewMongoStore(db)
	policyStore := policies.NewMongoStore(db)
	noteStore := risknotes.NewMongoStore(db)
	claimStore := claims.NewMongoStore(db)
	applicationStore := applications.NewMongoStore(db)

	indexed := []interface {
		EnsureIndexes(context.Context) error
	}{
		userStore, clientStore, groupStore, companyStore,
		policyStore, noteStore, claimStore, applicationStore,
	}
	for _, store := range indexed {
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
	}

	m := metrics.New()
	tokens := jwttoken.NewService(cfg.JWTSigningKey, "brokerage", cfg.JWTLifetime)

	userSvc := users.NewService(userStore, tokens, cfg.AdminRegisterKey, m, log)
	companySvc := insurers.NewService(companyStore, m, log)
	groupSvc := groups.NewService(groupStore,
		httptransport.NewGroupsClientDirectory(clientStore), m, log)
	noteSvc := risknotes.NewService(noteStore,
		httptransport.NewRiskNotesClientDirectory(clientStore),
		httptransport.NewRiskNotesCompanyDirectory(companyStore), m, log)
	clientSvc := clients.NewService(clientStore,
		httptransport.NewClientsGroupDirectory(groupSvc),
		httptransport.NewClientsRiskNoteDirectory(noteSvc), m, log)
	policySvc := policies.NewService(policyStore,
		httptransport.NewPoliciesClientDirectory(clientStore),
		httptransport.NewPoliciesGroupDirectory(groupStore), m, log)
	claimSvc := claims.NewService(claimStore,
		httptransport.NewClaimsRiskNoteDirectory(noteSvc), m, log)
	applicationSvc := applications.NewService(applicationStore, m, log)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Handlers: httptransport.Handlers{
			Users:        users.NewHandler(userSvc),
			Clients:      clients.NewHandler(clientSvc),
			Groups:       groups.NewHandler(groupSvc),
			Insurers:     insurers.NewHandler(companySvc),
			Policies:     policies.NewHandler(policySvc),
			RiskNotes:    risknotes.NewHandler(noteSvc),
			Claims:       claims.NewHandler(claimSvc),
			Applications: applications.NewHandler(applicationSvc),
		},
		Tokens:   jwttoken.NewAdapter(tokens),
		Subjects: userSvc,
		Metrics:  m,
		Logger:   log,
		Timeout:  cfg.RequestTimeout,
		Health:   mongoClient.Health,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("server listening", "addr", cfg.Addr, "env", cfg.Env)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
