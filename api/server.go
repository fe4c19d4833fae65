package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/pagesearch/config"
	"github.com/meghashyamc/pagesearch/db/kvdb"
	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/meghashyamc/pagesearch/logger"
	"github.com/meghashyamc/pagesearch/validation"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg        *config.Config
	router     *gin.Engine
	httpServer *http.Server
	kvdb       kvdb.DB
	searchdb   searchdb.DB
	validator  *validation.Validator
	logger     logger.Logger
}

// Run serves the HTTP API until ctx is cancelled or the process is interrupted.
func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := &server{
		cfg:    cfg,
		logger: logger.NewWithLevel(os.Stderr, logger.ParseLevel(cfg.GetLogLevel())),
	}
	if err := s.setupDependencies(); err != nil {
		return err
	}
	s.setupRouter()
	listenErrC := s.setupHTTPServer()

	return s.waitForShutdown(ctx, listenErrC)
}

func (s *server) setupDependencies() error {
	var err error
	s.kvdb, err = kvdb.New(s.logger, s.cfg.GetKVDBPath())
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		return err
	}
	s.searchdb, err = searchdb.Open(s.logger, s.cfg)
	if err != nil {
		s.logger.Error("error creating searchDB", "backend", s.cfg.GetSearchBackend(), "err", err.Error())
		s.kvdb.Close()
		return err
	}
	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		s.closeDatabases()
		return err
	}

	return nil

}

func (s *server) setupRouter() {
	router := newRouter(s.logger)

	setupRoutes(router, s.logger, s.cfg, s.searchdb, s.kvdb, s.validator)

	s.router = router
}

func (s *server) setupHTTPServer() <-chan error {

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.GetPort()),
		Handler:           s.router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpServer

	listenErrC := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", httpServer.Addr, "backend", s.cfg.GetSearchBackend())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErrC <- err
		}
		close(listenErrC)
	}()
	return listenErrC
}

func (s *server) waitForShutdown(ctx context.Context, listenErrC <-chan error) error {

	select {
	case err := <-listenErrC:
		if err != nil {
			s.logger.Error("http server stopped", "err", err.Error())
			s.closeDatabases()
			return err
		}
	case <-ctx.Done():
	}

	s.logger.Info("starting to shut down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.closeDatabases()
	if err != nil {
		s.logger.Error("error shutting down http server", "err", err.Error())
		return err
	}
	s.logger.Info("shut down http server successfully")
	return nil
}

func (s *server) closeDatabases() {
	if err := s.searchdb.Close(); err != nil {
		s.logger.Error("error closing searchDB", "err", err.Error())
	}
	if err := s.kvdb.Close(); err != nil {
		s.logger.Error("error closing kvDB", "err", err.Error())
	}
}
