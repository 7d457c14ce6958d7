package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	_ "github.com/lib/pq"
	nats "github.com/nats-io/nats.go"
	"github.com/rapidpro/relayd/config"
	"github.com/rapidpro/relayd/pkg/api"
	"github.com/rapidpro/relayd/pkg/notify/natsio"
	"github.com/rapidpro/relayd/pkg/relay"
	"github.com/rapidpro/relayd/pkg/relay/auth"
	"github.com/rapidpro/relayd/pkg/storage"
	"github.com/rapidpro/relayd/pkg/storage/memory"
	"github.com/rapidpro/relayd/pkg/storage/postgres"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type relayServer struct {
	cfg *config.Config

	quitCh chan bool
	doneCh chan bool

	nc    *nats.Conn
	db    *sqlx.DB
	errCh chan error
	wg    sync.WaitGroup
}

func init() {
	formatter := &logrus.TextFormatter{
		FullTimestamp: true,
	}
	logrus.SetFormatter(formatter)

	// Output to stdout instead of the default stderr
	log.SetOutput(os.Stdout)

	log.SetLevel(log.InfoLevel)
}

func newRelayServer(cfg *config.Config) (*relayServer, error) {
	s := &relayServer{
		cfg:    cfg,
		quitCh: make(chan bool),
		doneCh: make(chan bool),

		errCh: make(chan error, 1),
		wg:    sync.WaitGroup{},
	}

	nc, err := nats.Connect(cfg.NATSServerURL,
		nats.DrainTimeout(10*time.Second),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			s.errCh <- err
		}),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			syscall.Kill(syscall.Getpid(), syscall.SIGINT)
		}))
	if err != nil {
		return nil, err
	}

	s.nc = nc

	if cfg.DatabaseURL != "" {
		db, err := sqlx.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			return nil, err
		}
		s.db = db
	}

	return s, nil
}

func (s *relayServer) newStore() storage.Interface {
	if s.db != nil {
		return postgres.NewStore(s.db)
	}

	log.Warn("No DATABASE_URL configured, falling back to in-memory storage")
	return memory.NewStore()
}

func (s *relayServer) newReplayCache() auth.ReplayCache {
	if !s.cfg.ReplayStrict {
		return nil
	}

	if s.cfg.RedisURL == "" {
		log.Warn("REPLAY_STRICT without REDIS_URL, replay cache is per-instance only")
		return auth.NewMemoryReplayCache()
	}

	opts, err := redis.ParseURL(s.cfg.RedisURL)
	if err != nil {
		log.Error("Invalid REDIS_URL, replay cache is per-instance only: ", err)
		return auth.NewMemoryReplayCache()
	}

	return auth.NewRedisReplayCache(redis.NewClient(opts))
}

func (s *relayServer) Serve() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger())

	store := s.newStore()
	notifier := natsio.NewWithConn(natsio.NewConfig(s.cfg.NATSServerURL), s.nc)
	push := relay.NewNoopPushClient()

	msgService := natsio.NewMessageService(relay.NewMessageService(store), notifier)
	dispatcher := relay.NewDispatcher(store, msgService,
		relay.NewCallEventService(store), relay.NewIncidentService(store),
		s.cfg.RelayerVersion)

	authenticator := auth.NewAuthenticator(s.newReplayCache())
	syncer := relay.NewSyncer(store, authenticator, dispatcher, relay.NewTracker(store))
	registrar := relay.NewRegistrar(store, push, notifier)

	// Device-facing endpoints
	relayHandler := relay.NewHandler(syncer, registrar)
	relayHandler.RegisterRoutes(e)

	// Operator API endpoints
	apiHandler := api.NewHandler(store, notifier)
	apiHandler.RegisterRoutes(e)

	// Answer sync-request nudges from the operator API
	sub, err := notifier.SubscribeSyncRequests(func(deviceUUID string) error {
		ch, err := store.Channels().FindByDeviceUUID(deviceUUID)
		if err != nil {
			return err
		}
		return push.Notify(ch.Config.FCMID)
	})
	if err != nil {
		log.Error("Failed to subscribe to sync requests: ", err)
	} else {
		defer sub.Unsubscribe()
	}

	go func() {
		log.WithFields(log.Fields{
			"host": s.cfg.BindHost,
			"port": s.cfg.BindPort,
		}).Info("Starting server")

		if err := e.Start(fmt.Sprintf("%s:%d", s.cfg.BindHost, s.cfg.BindPort)); err != nil {
			e.Logger.Info("Shutting down the server")
		}
	}()

	// Wait until receiving the quit signal
	<-s.quitCh
	log.Info("Shutdown signal received")

	// Create a 10 second timeout context
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the echo web server
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Error(err)
	}

	// We've done!
	s.doneCh <- true
}

// Logger returns a middleware that logs HTTP requests.
func logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			var err error
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}
			reqSizeStr := req.Header.Get(echo.HeaderContentLength)
			if reqSizeStr == "" {
				reqSizeStr = "0"
			}
			reqSize, err := strconv.ParseInt(reqSizeStr, 10, 0)
			if err != nil {
				reqSize = -1
			}
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			}

			log.WithFields(log.Fields{
				"timestamp":     stop.Format(time.RFC3339),
				"id":            id,
				"remote_ip":     c.RealIP(),
				"host":          req.Host,
				"method":        req.Method,
				"uri":           req.RequestURI,
				"protocol":      req.Proto,
				"user_agent":    req.UserAgent(),
				"status":        res.Status,
				"status_text":   http.StatusText(res.Status),
				"referer":       req.Referer(),
				"error":         errMsg,
				"bytes_in":      reqSize,
				"bytes_out":     res.Size,
				"latency":       stop.Sub(start).Nanoseconds(),
				"latency_human": stop.Sub(start).String(),
			}).Infof("%s %s %s %d %s", req.Method, req.RequestURI, req.Proto,
				res.Status, strconv.FormatInt(res.Size, 10))

			return err
		}
	}
}

func (s *relayServer) Shutdown() {
	if s.nc != nil {
		s.nc.Drain()
	}
	if s.db != nil {
		s.db.Close()
	}

	// Send the quit signal to the server.Serve() routine
	s.quitCh <- true

	// Wait up to 10 seconds
	select {
	case <-s.doneCh:
		log.Info("Shutdown server successful")
	case <-time.After(10 * time.Second):
		log.Error("Shutdown server failed")
	}
}

func RunServeRelay(cfg *config.Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		s, err := newRelayServer(cfg)
		if err != nil {
			log.Error("failed to create new server instance: ", err)
			os.Exit(1)
		}

		go s.Serve()

		// Wait for interrupt signal to gracefully shutdown the server
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt)
		<-quitCh

		// Shutdown the server
		s.Shutdown()
	}
}
