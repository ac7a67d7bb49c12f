// Package main wires the Fluidinfo process: configuration, the main
// store pool, the Redis-backed cache, the full-text index client, the
// security-checked Facade the HTTP frontend consumes, and the
// index-synchronization loop that keeps the external index eventually
// consistent with the main store.
//
// The HTTP dispatcher itself is out of scope; this binary owns
// everything behind it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fluidinfo/cache"
	"fluidinfo/config"
	"fluidinfo/facade"
	"fluidinfo/index"
	"fluidinfo/indexsync"
	"fluidinfo/logger"
	"fluidinfo/modelapi"
	"fluidinfo/security"
	"fluidinfo/store"
)

// Server owns every process-wide handle: configuration and pool
// handles are explicit, passed down rather than looked up ambiently.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	cache  *cache.Cache
	index  *index.Client
	facade *facade.Facade
	sync   *indexsync.Runner
}

// NewServer opens every pool and wires the API layers bottom-up.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	st, err := store.Open(ctx, cfg.Storage.DSN, int32(cfg.Storage.MaxConnections))
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	// Model APIs. The Namespace/Tag/TagValue constructors have a cycle
	// (namespaces write system tags through tag values, tag values
	// create tags implicitly, tags create ancestor namespaces), broken
	// by wiring the TagValueAPI in after construction.
	namespaces := modelapi.NewNamespaceAPI(st)
	tags := modelapi.NewTagAPI(st, namespaces)
	tagValues := modelapi.NewTagValueAPI(st, tags)
	namespaces.SetTagValueAPI(tagValues)
	tags.SetTagValueAPI(tagValues)
	objects := modelapi.NewObjectAPI(st, tagValues)
	users := modelapi.NewUserAPI(st, namespaces, tagValues)
	activity := modelapi.NewRecentActivityAPI(st)

	// System entities, inside one transaction so a half-bootstrapped
	// store never becomes visible.
	tx, err := st.Begin(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	_, anon, err := modelapi.Bootstrap(ctx, tx, users, tagValues, systemPassword())
	if err != nil {
		_ = tx.Rollback(ctx)
		st.Close()
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		st.Close()
		return nil, err
	}
	permissions := modelapi.NewPermissionAPI(st, anon.ID.String())

	c := cache.New(cfg.Cache.Address, cfg.Cache.PoolSize, cfg.Cache.ExpireTimeout, objects, permissions, activity)
	idx := index.New(cfg.Index.URL, cfg.Index.RequestTimeout, cfg.Index.CommitRetries)

	deps := security.Deps{
		Namespaces: namespaces,
		Tags:       tags,
		TagValues:  tagValues,
		Permission: permissions,
		Objects:    objects,
		Users:      users,
		Activity:   activity,
		Cache:      c,
	}
	f := facade.New(st, deps, idx, facade.Config{
		WorkerPoolSize: cfg.Service.WorkerPoolSize,
		RequestTimeout: cfg.Service.RequestTimeout,
		HasCapLimit:    cfg.Service.HasCapLimit,
	})

	return &Server{
		cfg:    cfg,
		store:  st,
		cache:  c,
		index:  idx,
		facade: f,
		sync:   indexsync.New(st, idx, 500, 10000),
	}, nil
}

// Facade exposes the API surface to the (out-of-scope) HTTP frontend.
func (s *Server) Facade() *facade.Facade { return s.facade }

// Close tears the pools down in reverse wiring order.
func (s *Server) Close() {
	if err := s.cache.Close(); err != nil {
		logger.Error("closing cache: %v", err)
	}
	s.store.Close()
}

// systemPassword returns the fluiddb superuser's bootstrap password. A
// throwaway is generated when unset: the account is only reachable
// through the API once an operator sets a real one.
func systemPassword() string {
	if pw := os.Getenv("FLUIDINFO_SYSTEM_PASSWORD"); pw != "" {
		return pw
	}
	return fmt.Sprintf("bootstrap-%d", time.Now().UnixNano())
}

func main() {
	fullReindex := flag.Bool("full-reindex", false, "delete and rebuild the full-text index, then exit")
	batchIndexFile := flag.String("batch-index", "", "file of object IDs (one per line) to re-touch for reindexing, then exit")
	batchIndexSize := flag.Int("batch-index-size", 100, "objects per batch for -batch-index")
	batchIndexSleep := flag.Duration("batch-index-sleep", time.Second, "sleep between -batch-index batches")
	syncInterval := flag.Duration("sync-interval", 10*time.Second, "delta index import interval")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fluidinfo: %v\n", err)
		os.Exit(1)
	}
	if err := logger.SetLogLevel(cfg.Service.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "fluidinfo: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := NewServer(ctx, cfg)
	if err != nil {
		logger.Fatal("startup failed: %v", err)
	}
	defer server.Close()

	switch {
	case *fullReindex:
		if err := server.sync.Full(ctx); err != nil {
			logger.Fatal("full reindex failed: %v", err)
		}
	case *batchIndexFile != "":
		if err := server.sync.BatchIndexFile(ctx, *batchIndexFile, *batchIndexSize, *batchIndexSleep); err != nil {
			logger.Fatal("batch index failed: %v", err)
		}
	default:
		logger.Info("fluidinfo: ready (index sync every %s)", *syncInterval)
		server.sync.Run(ctx, *syncInterval)
	}
	logger.Info("fluidinfo: shutting down")
}
