package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/fcuchain/internal/council"
	"github.com/goodnatureofminers/fcuchain/internal/model"
	"github.com/goodnatureofminers/fcuchain/internal/node"
)

var config struct {
	ID          string   `long:"id" env:"FCUNODE_ID" description:"node id" default:"fcu-node-1"`
	Addr        string   `long:"addr" env:"FCUNODE_ADDR" description:"listen addr" default:":9000"`
	Role        string   `long:"role" env:"FCUNODE_ROLE" description:"node role" default:"full_node" choice:"poc_miner" choice:"pos_validator" choice:"full_node"`
	CapacityGB  uint64   `long:"capacity-gb" env:"FCUNODE_CAPACITY_GB" description:"pledged storage capacity" default:"256"`
	TreasurerID string   `long:"treasurer-id" env:"FCUNODE_TREASURER_ID" description:"treasurer identity"`
	Peers       []string `long:"peer" env:"FCUNODE_PEERS" env-delim:"," description:"bootstrap peer as id@host:port"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()
	if _, err := flags.ParseArgs(&config, os.Args); err != nil {
		logger.Fatal("Failed to parse arguments", zap.Error(err))
	}

	treasurerID := config.TreasurerID
	if treasurerID == "" {
		treasurerID = config.ID
	}
	treasurer := council.NewValidator(treasurerID, council.RoleTreasurer, 0)
	governance := council.New(treasurer, council.NewTreasury(model.GenesisAmount), nil, logger)

	transport := newHTTPTransport()
	n := node.New(node.Config{
		ID:         config.ID,
		Address:    config.Addr,
		Role:       model.PeerRole(config.Role),
		CapacityGB: config.CapacityGB,
	}, governance, transport, nil, logger)

	n.Start(ctx)
	defer n.Stop()

	if config.Role == string(model.RolePoCMiner) {
		go func() {
			if err := n.Run(ctx, 0); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Block production stopped", zap.Error(err))
			}
		}()
	}

	for _, peer := range config.Peers {
		id, addr, ok := strings.Cut(peer, "@")
		if !ok {
			logger.Warn("Skipping malformed peer", zap.String("peer", peer))
			continue
		}
		transport.register(id, addr)
		n.ConnectPeer(ctx, model.PeerInfo{ID: id, Address: addr, Role: model.RoleFullNode})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/gossip", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		msg, err := model.DecodeMessage(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := n.HandleMessage(r.Context(), r.Header.Get("X-FCU-Peer"), msg); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/v1/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(n.Stats()); err != nil {
			logger.Error("Failed to encode status", zap.Error(err))
		}
	})

	s := &http.Server{
		Addr:              config.Addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("Starting FCU node",
		zap.String("id", config.ID),
		zap.String("addr", config.Addr),
		zap.String("role", config.Role))
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Failed to listen and serve", zap.Error(err))
	}
}
