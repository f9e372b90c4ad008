package misc

import (
	"context"
	"net/http"
	"time"

	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

const (
	MsgServerRunning      = "Server is running"
	MsgServiceUnavailable = "Service unavailable"
	MsgRouteNotFound      = "Route not found"
)

const healthCheckTimeout = 3 * time.Second

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type Handler struct {
	versionInfo string
	db          dbPinger
	redisClient redisPinger
}

func NewHandler(
	versionInfo string,
	db dbPinger,
	redisClient redisPinger,
) *Handler {
	return &Handler{
		versionInfo: versionInfo,
		db:          db,
		redisClient: redisClient,
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (handler *Handler) SetupRoutes(mainRouter, apiRouter *mux.Router) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	apiRouter.HandleFunc("/health", handler.handleHealth).Methods("GET").Name("health")
	apiRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.health")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := pkg.StatusSuccess
	message := MsgServerRunning
	statusCode := http.StatusOK

	if handler.db != nil {
		if err := handler.db.Ping(ctx); err != nil {
			log.Errorf("health check, ping postgres: %s", err)
			span.RecordError(err)
			status, message, statusCode = pkg.StatusError, MsgServiceUnavailable, http.StatusServiceUnavailable
		}
	}
	if handler.redisClient != nil {
		if err := handler.redisClient.Ping(ctx).Err(); err != nil {
			log.Errorf("health check, ping redis: %s", err)
			span.RecordError(err)
			status, message, statusCode = pkg.StatusError, MsgServiceUnavailable, http.StatusServiceUnavailable
		}
	}

	if statusCode != http.StatusOK {
		span.SetStatus(codes.Error, "unhealthy")
	} else {
		span.SetStatus(codes.Ok, "ok")
	}

	pkg.WriteJSON(w, statusCode, healthResponse{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

// NotFoundHandler answers unknown routes in the API envelope.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Tracef("route not found: [%s] %s", r.Method, r.URL.Path)
		pkg.WriteError(w, http.StatusNotFound, MsgRouteNotFound)
	})
}
