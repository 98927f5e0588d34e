// Package server wires the pirates runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	platformgrpc "github.com/cryptopia-com/cryptopia-world/internal/platform/grpc"
	"github.com/cryptopia-com/cryptopia-world/internal/platform/timeouts"
	"github.com/cryptopia-com/cryptopia-world/internal/random"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/api/grpc/interceptors"
	grpcmeta "github.com/cryptopia-com/cryptopia-world/internal/services/pirates/api/grpc/metadata"
	piratesservice "github.com/cryptopia-com/cryptopia-world/internal/services/pirates/api/grpc/pirates"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/authz"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/domain/confrontation"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/observability/audit"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/observability/metrics"
	piratessqlite "github.com/cryptopia-com/cryptopia-world/internal/services/pirates/storage/sqlite"
	"github.com/cryptopia-com/cryptopia-world/internal/services/pirates/world/local"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// DefaultServiceID is the audience offer proofs must name.
const DefaultServiceID = "cryptopia-pirates"

// Config describes one pirates server.
type Config struct {
	// Addr is the listen address, e.g. ":8095".
	Addr string
	// DBPath defaults to data/pirates.db.
	DBPath string
	// WorldPath is a JSON world fixture; empty loads the embedded one.
	WorldPath string
	ServiceID string
	Rules     confrontation.Rules
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = filepath.Join("data", "pirates.db")
	}
	if strings.TrimSpace(c.ServiceID) == "" {
		c.ServiceID = DefaultServiceID
	}
	if c.Rules == (confrontation.Rules{}) {
		c.Rules = confrontation.DefaultRules()
	}
	return c
}

// Server hosts the pirates gRPC API and storage lifecycle.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *piratessqlite.Store
}

// New creates a configured pirates server listening on cfg.Addr.
func New(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	store, err := openPiratesStore(cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	grpcServer, err := newGRPCServer(cfg, store)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     platformgrpc.RegisterHealth(grpcServer, piratesservice.ServiceName),
		store:      store,
	}, nil
}

func newGRPCServer(cfg Config, store *piratessqlite.Store) (*grpc.Server, error) {
	world, err := local.LoadFile(cfg.WorldPath)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	verifier, err := authz.NewVerifier(cfg.ServiceID, world, time.Now)
	if err != nil {
		return nil, fmt.Errorf("offer verifier: %w", err)
	}
	recorder, err := metrics.New(nil)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	emitter := audit.NewEmitter(store)

	manager, err := confrontation.NewManager(confrontation.Deps{
		Registry:   world,
		World:      world,
		Inventory:  world,
		Verifier:   verifier,
		Transactor: world,
		Store:      store,
		Seeds:      random.NewEngine(random.CryptoSource{}),
	},
		confrontation.WithRules(cfg.Rules),
		confrontation.WithAudit(emitter),
		confrontation.WithRecorder(recorder),
	)
	if err != nil {
		return nil, fmt.Errorf("confrontation manager: %w", err)
	}

	grpcServer := grpc.NewServer(platformgrpc.DefaultServerOptions(
		grpcmeta.UnaryServerInterceptor(nil),
		interceptors.AuditInterceptor(emitter),
	)...)
	piratesservice.RegisterConfrontationServiceServer(grpcServer, piratesservice.NewService(manager, store))
	return grpcServer, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a pirates server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("pirates server listening at %v", s.listener.Addr())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.grpcServer.Serve(s.listener)
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		s.health.Shutdown()
		s.gracefulStop()
		return nil
	})
	return g.Wait()
}

// gracefulStop waits for in-flight calls up to timeouts.GracefulStop.
func (s *Server) gracefulStop() {
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeouts.GracefulStop):
		log.Printf("pirates server graceful stop timed out")
		s.grpcServer.Stop()
	}
}

// Close releases pirates server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close pirates store: %v", err)
		}
	}
}

func openPiratesStore(path string) (*piratessqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := piratessqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pirates sqlite store: %w", err)
	}
	return store, nil
}
