// Package main runs the decision engine end to end:
// - Ingestion (continuous): WebSocket program logs -> parser -> queue
// - Evaluation (continuous): queue -> gate -> scoring -> decision
// - Feedback (on demand): POST /outcome -> reinforcement memory
// - Maintenance (scheduled): memory decay and store trims
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"token-snipe-engine/internal/domain"
	"token-snipe-engine/internal/engine"
	"token-snipe-engine/internal/feedback"
	"token-snipe-engine/internal/gate"
	"token-snipe-engine/internal/ingestion"
	"token-snipe-engine/internal/observability"
	"token-snipe-engine/internal/queue"
	"token-snipe-engine/internal/replaybuf"
	"token-snipe-engine/internal/solana"
	"token-snipe-engine/internal/storage"
	chstore "token-snipe-engine/internal/storage/clickhouse"
	"token-snipe-engine/internal/storage/memory"
	"token-snipe-engine/internal/storage/migrations"
	pgstore "token-snipe-engine/internal/storage/postgres"
)

// DEX program aliases mapped to program IDs.
var dexAliases = map[string]string{
	"raydium": ingestion.RaydiumAMMV4,
	"pumpfun": ingestion.PumpFun,
}

// Server holds all components of the engine service.
type Server struct {
	wsEndpoint string
	programs   []string
	cooldown   time.Duration

	stores    *engineStores
	blacklist *gate.Blacklist
	queue     *queue.EventQueue
	buffer    *replaybuf.Buffer
	monitor   *replaybuf.Monitor
	consumer  *engine.Consumer
	router    *feedback.Router

	logger  *log.Logger
	started time.Time
}

// engineStores holds all storage implementations.
type engineStores struct {
	weights  storage.ReasoningWeightStore
	patterns storage.SignalPatternStore
	wallets  storage.WalletProfileStore
	streaks  storage.StreakStore
	tokens   storage.TokenRecordStore
	records  storage.OutcomeRecordStore
	evalLog  storage.EvaluationLogStore
}

func main() {
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	programs := flag.String("programs", "", "Comma-separated program IDs to monitor")
	dex := flag.String("dex", "raydium,pumpfun", "Comma-separated DEX aliases (raydium, pumpfun)")
	blacklistSeed := flag.String("blacklist", os.Getenv("TOKEN_BLACKLIST"), "Comma-separated token addresses to blacklist at startup")
	queueCapacity := flag.Int("queue-capacity", queue.DefaultCapacity, "Ingestion queue bound")
	bufferCapacity := flag.Int("buffer-capacity", replaybuf.DefaultCapacity, "Replay buffer entry cap")
	cooldown := flag.Duration("cooldown", ingestion.DefaultCooldown, "Per-token ingestion cooldown window")
	decaySchedule := flag.String("decay-schedule", "@hourly", "Cron schedule for memory decay")
	trimSchedule := flag.String("trim-schedule", "@every 6h", "Cron schedule for store trims")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for health/metrics/status")

	flag.Parse()

	logger := log.New(os.Stdout, "[engine] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	programList := resolvePrograms(*programs, *dex)
	if len(programList) == 0 {
		logger.Fatal("No programs specified. Use --programs or --dex")
	}
	logger.Printf("Monitoring programs: %v", programList)

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	blacklist := gate.NewBlacklistFrom(splitList(*blacklistSeed))
	eventQueue := queue.New(*queueCapacity, logger)
	buffer := replaybuf.New(*bufferCapacity, replaybuf.DefaultWindow)

	monitor := replaybuf.NewMonitor(replaybuf.MonitorOptions{
		LastObserved: buffer.LastEventTimestamp,
		QueueDepth:   eventQueue.Depth,
		Buffer:       buffer,
		Logger:       logger,
	})

	evaluator := engine.NewEvaluator(engine.EvaluatorOptions{
		Gate: gate.NewBasicGate(gate.BasicGateOptions{
			Blacklist: func(_ context.Context, token string) (bool, error) {
				return blacklist.Contains(token), nil
			},
			Logger: logger,
		}),
		Weights:       stores.weights,
		Patterns:      stores.patterns,
		Wallets:       stores.wallets,
		Streaks:       stores.streaks,
		Tokens:        stores.tokens,
		EvaluationLog: stores.evalLog,
		Logger:        logger,
	})

	consumer := engine.NewConsumer(engine.ConsumerOptions{
		Queue:     eventQueue,
		Evaluator: evaluator,
		Builder:   engine.NewEventContextBuilder(),
		Monitor:   monitor,
		Logger:    logger,
	})

	router := feedback.NewRouter(feedback.RouterOptions{
		Weights:   stores.weights,
		Patterns:  stores.patterns,
		Wallets:   stores.wallets,
		Streaks:   stores.streaks,
		Tokens:    stores.tokens,
		Records:   stores.records,
		Blacklist: blacklist,
		Buffer:    buffer,
		Logger:    logger,
	})

	maintainer := feedback.NewMaintainer(feedback.MaintainerOptions{
		Weights:  stores.weights,
		Patterns: stores.patterns,
		Wallets:  stores.wallets,
		Tokens:   stores.tokens,
		Records:  stores.records,
		EvalLog:  stores.evalLog,
		Logger:   logger,
	})

	server := &Server{
		wsEndpoint: *wsEndpoint,
		programs:   programList,
		cooldown:   *cooldown,
		stores:     stores,
		blacklist:  blacklist,
		queue:      eventQueue,
		buffer:     buffer,
		monitor:    monitor,
		consumer:   consumer,
		router:     router,
		logger:     logger,
		started:    time.Now(),
	}

	// Schedule maintenance
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(*decaySchedule, func() {
		if err := maintainer.Decay(ctx); err != nil {
			logger.Printf("Memory decay error: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Invalid decay schedule %q: %v", *decaySchedule, err)
	}
	if _, err := scheduler.AddFunc(*trimSchedule, func() {
		if err := maintainer.Trim(ctx); err != nil {
			logger.Printf("Store trim error: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Invalid trim schedule %q: %v", *trimSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	go server.startHTTPServer(*metricsAddr)

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Engine error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// resolvePrograms resolves program IDs from flags.
func resolvePrograms(programs, dex string) []string {
	result := make(map[string]bool)

	for _, p := range splitList(programs) {
		result[p] = true
	}
	for _, alias := range splitList(dex) {
		if programID, ok := dexAliases[strings.ToLower(alias)]; ok {
			result[programID] = true
		}
	}

	list := make([]string, 0, len(result))
	for p := range result {
		list = append(list, p)
	}
	return list
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*engineStores, func(), error) {
	if useMemory {
		stores := &engineStores{
			weights:  memory.NewReasoningWeightStore(),
			patterns: memory.NewSignalPatternStore(),
			wallets:  memory.NewWalletProfileStore(),
			streaks:  memory.NewStreakStore(),
			tokens:   memory.NewTokenRecordStore(),
			records:  memory.NewOutcomeRecordStore(),
			evalLog:  memory.NewEvaluationLogStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL: reinforcement memory + outcome records
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	// ClickHouse: append-only evaluation log
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	stores := &engineStores{
		weights:  pgstore.NewReasoningWeightStore(pool),
		patterns: pgstore.NewSignalPatternStore(pool),
		wallets:  pgstore.NewWalletProfileStore(pool),
		streaks:  pgstore.NewStreakStore(pool),
		tokens:   pgstore.NewTokenRecordStore(pool),
		records:  pgstore.NewOutcomeRecordStore(pool),
		evalLog:  chstore.NewEvaluationLogStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// Run starts the listener, consumer, and backlog monitor and blocks
// until ctx is canceled or a component fails.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting engine...")

	ws, err := solana.DialWS(ctx, s.wsEndpoint, nil)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}
	defer ws.Close()

	listener := ingestion.NewListener(ingestion.ListenerOptions{
		Client:    ws,
		Programs:  s.programs,
		Queue:     s.queue,
		Buffer:    s.buffer,
		Cooldown:  s.cooldown,
		Blacklist: s.blacklist,
		Tokens:    s.stores.tokens,
		Logger:    log.New(os.Stdout, "[ingestion] ", log.LstdFlags|log.Lshortfile),
	})

	errCh := make(chan error, 3)

	go func() {
		err := listener.Run(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("listener: %w", err)
		}
	}()

	go func() {
		err := s.consumer.Run(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("consumer: %w", err)
		}
	}()

	go func() {
		err := s.monitor.Run(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("monitor: %w", err)
		}
	}()

	// Uptime heartbeat
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// startHTTPServer starts the HTTP server for health/metrics/status and
// the outcome feedback endpoint.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/outcome", s.handleOutcome)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// handleHealth reports backlog liveness as JSON.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := s.consumer.Health()

	w.Header().Set("Content-Type", "application/json")
	if !health.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	QueueDepth    int     `json:"queue_depth"`
	QueueDropped  int64   `json:"queue_dropped"`
	BufferSize    int     `json:"buffer_size"`
	BacklogLag    string  `json:"backlog_lag"`
	BlacklistSize int     `json:"blacklist_size"`
	CooldownSecs  float64 `json:"cooldown_seconds"`
}

// handleStatus returns engine status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).String(),
		QueueDepth:    s.queue.Depth(),
		QueueDropped:  s.queue.Dropped(),
		BufferSize:    s.buffer.Size(),
		BacklogLag:    s.monitor.Lag().String(),
		BlacklistSize: s.blacklist.Size(),
		CooldownSecs:  s.cooldown.Seconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// outcomeRequest is the JSON body accepted by /outcome.
type outcomeRequest struct {
	TokenAddress string            `json:"token_address"`
	TokenName    string            `json:"token_name"`
	FinalScore   float64           `json:"final_score"`
	Reasoning    []string          `json:"reasoning"`
	Signals      map[string]string `json:"signals"`
	Wallets      []string          `json:"wallets"`
	PnL          float64           `json:"pnl"`
	Outcome      string            `json:"outcome"`
	OpenedAt     int64             `json:"opened_at"`
	ClosedAt     int64             `json:"closed_at"`
}

// handleOutcome accepts a completed trade result and routes it through
// the reinforcement memory.
func (s *Server) handleOutcome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decode outcome: %v", err), http.StatusBadRequest)
		return
	}

	rec := &domain.OutcomeRecord{
		TokenAddress: req.TokenAddress,
		TokenName:    req.TokenName,
		FinalScore:   req.FinalScore,
		Reasoning:    req.Reasoning,
		Signals:      req.Signals,
		Wallets:      req.Wallets,
		PnL:          req.PnL,
		Outcome:      domain.Outcome(req.Outcome),
		OpenedAt:     req.OpenedAt,
		ClosedAt:     req.ClosedAt,
	}

	if err := s.router.RecordOutcome(r.Context(), rec); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			http.Error(w, "outcome already recorded", http.StatusConflict)
			return
		}
		s.logger.Printf("Outcome routing error token=%s: %v", rec.TokenAddress, err)
		http.Error(w, "outcome partially recorded", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"record_id": rec.RecordID,
		"outcome":   string(rec.Outcome),
	})
}
