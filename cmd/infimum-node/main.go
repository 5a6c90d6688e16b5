package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/infimum-dao/infimum-node/crypto/zk"
	"github.com/infimum-dao/infimum-node/engine"
	"github.com/infimum-dao/infimum-node/log"
	"github.com/infimum-dao/infimum-node/service"
	"github.com/infimum-dao/infimum-node/storage"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

func main() {
	dataDir := flag.String("dataDir", "./infimum-data", "data directory")
	logLevel := flag.String("logLevel", log.LogLevelInfo, "log level (debug, info, warn, error)")
	host := flag.String("host", "0.0.0.0", "API host")
	port := flag.Int("port", 8080, "API port")
	blockInterval := flag.Duration("blockInterval", 6*time.Second, "block clock interval")
	startHeight := flag.Uint64("startHeight", 0, "initial block height")
	maxCoordinatorPolls := flag.Uint64("maxCoordinatorPolls", 16, "max polls per coordinator")
	maxVoteOptions := flag.Int("maxVoteOptions", 32, "max vote options per poll")
	flag.Parse()
	log.Init(*logLevel, "stdout", nil)

	kv, err := metadb.New(db.TypePebble, *dataDir)
	if err != nil {
		log.Fatalf("could not open database: %v", err)
	}
	store := storage.New(kv)
	defer store.Close()

	clock := service.NewBlockClock(*startHeight, *blockInterval)
	cfg := engine.DefaultConfig()
	cfg.MaxCoordinatorPolls = *maxCoordinatorPolls
	cfg.MaxVoteOptions = *maxVoteOptions
	eng := engine.New(cfg, store, clock, zk.Groth16Verifier{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := clock.Start(ctx); err != nil {
		log.Fatalf("could not start block clock: %v", err)
	}
	defer clock.Stop()

	apiSrv := service.NewAPI(eng, *host, *port)
	if err := apiSrv.Start(ctx); err != nil {
		log.Fatalf("could not start API service: %v", err)
	}
	defer apiSrv.Stop()
	log.Infow("node started", "dataDir", *dataDir, "host", *host, "port", *port,
		"blockInterval", blockInterval.String(), "height", clock.Now())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Infof("shutting down")
}
