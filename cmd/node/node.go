package node

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vechain/blobstore/blobio"
	"github.com/vechain/blobstore/cmd/node/config"
	"github.com/vechain/blobstore/kv"
	"github.com/vechain/blobstore/node"
	"github.com/vechain/blobstore/refs"
	"github.com/vechain/blobstore/utils/fpath"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	// Commands commands exposed
	Commands = []cli.Command{
		{
			Action: startNode,
			Name:   "node",
			Usage:  "start a node instance",
			Flags: []cli.Flag{
				ConfigFlag,
				bindFlag,
				DirFlag,
				devFlag,
				logLevelFlag,
			},
		},
	}
	// ConfigFlag path of YAML config file
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path of YAML config file",
	}
	// DirFlag dir of db
	DirFlag = cli.StringFlag{
		Name:  "dir",
		Usage: "dir of db",
	}
	bindFlag = cli.StringFlag{
		Name:  "bind",
		Usage: "IP:port binding of node",
	}
	devFlag = cli.BoolFlag{
		Name:   "dev",
		Usage:  "if set, node will use mem store",
		Hidden: true,
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "log level (debug, info, warn, error)",
	}
)

// LoadConfig loads config file if given, then applies flags over it.
func LoadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := ctx.String(ConfigFlag.Name); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if ctx.IsSet(bindFlag.Name) {
		cfg.Bind = ctx.String(bindFlag.Name)
	}
	if ctx.IsSet(DirFlag.Name) {
		cfg.Dir = ctx.String(DirFlag.Name)
	}
	if ctx.IsSet(logLevelFlag.Name) {
		cfg.LogLevel = ctx.String(logLevelFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DataDir resolves data dir, defaults to ~/.blobstore-node.
func DataDir(dir string) (string, error) {
	if dir == "" {
		home, err := fpath.HomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".blobstore-node"), nil
	}
	return fpath.Abs(dir)
}

// OpenStore opens the kv store under dir and the blob store over it.
// Callers close both.
func OpenStore(dir string, cfg config.Store) (kv.Store, *blobio.Store, error) {
	dataDir, err := DataDir(dir)
	if err != nil {
		return nil, nil, err
	}
	log.Println("Location:", dataDir)
	store, err := kv.NewStore(filepath.Join(dataDir, "store"), kv.Options{
		CacheSize:              cfg.CacheSize,
		OpenFilesCacheCapacity: cfg.OpenFilesCacheCapacity,
		NoSync:                 cfg.NoSync,
	})
	if err != nil {
		return nil, nil, err
	}
	blobs, err := blobio.NewStore(store, blobio.Options{CompressThreshold: cfg.CompressThreshold})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, blobs, nil
}

func startNode(ctx *cli.Context) error {
	cfg, err := LoadConfig(ctx)
	if err != nil {
		return err
	}
	lvl, _ := cfg.Level()
	log.SetLevel(lvl)

	log.Println(ctx.App.Name, ctx.App.Version)
	defer func() {
		log.Println("exited")
	}()

	var (
		store kv.Store
		blobs *blobio.Store
	)
	if ctx.IsSet(devFlag.Name) {
		store, err = kv.NewMemStore(kv.Options{CacheSize: cfg.Store.CacheSize})
		if err != nil {
			return err
		}
		blobs, err = blobio.NewStore(store, blobio.Options{CompressThreshold: cfg.Store.CompressThreshold})
		if err != nil {
			store.Close()
			return err
		}
		log.Warnf("Running in dev mode")
	} else {
		store, blobs, err = OpenStore(cfg.Dir, cfg.Store)
		if err != nil {
			return err
		}
	}

	defer func() {
		blobs.Close()
		store.Close()
		log.Println("store closed")
	}()

	listener, err := net.Listen("tcp", cfg.Bind)
	if err != nil {
		return err
	}
	log.Println("HTTP server listening on", listener.Addr())

	n := node.New(blobs, refs.New(store), node.Options{ScrubInterval: cfg.ScrubInterval})
	n.Start()
	defer n.Shutdown()

	mux := http.NewServeMux()
	mux.Handle(node.HTTPPathPrefix, node.NewHTTPHandler(n))

	return serveHTTP(listener, mux)
}

func serveHTTP(listener net.Listener, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit,
		syscall.SIGINT, syscall.SIGTERM,
		syscall.SIGHUP)

	select {
	case sig := <-quit:
		log.Println("received", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
