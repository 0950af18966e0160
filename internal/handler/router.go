package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	attachmenthandler "github.com/zhouzirui/mindbloom/backend/internal/handler/attachment"
	authhandler "github.com/zhouzirui/mindbloom/backend/internal/handler/auth"
	chathandler "github.com/zhouzirui/mindbloom/backend/internal/handler/chat"
	moodhandler "github.com/zhouzirui/mindbloom/backend/internal/handler/mood"
	"github.com/zhouzirui/mindbloom/backend/internal/handler/stream"
	therapisthandler "github.com/zhouzirui/mindbloom/backend/internal/handler/therapist"
	voicehandler "github.com/zhouzirui/mindbloom/backend/internal/handler/voice"
	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	"github.com/zhouzirui/mindbloom/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/mindbloom/backend/internal/middleware"
	"github.com/zhouzirui/mindbloom/backend/internal/service/attachment"
	chatservice "github.com/zhouzirui/mindbloom/backend/internal/service/chat"
	"github.com/zhouzirui/mindbloom/backend/internal/service/identity"
	moodservice "github.com/zhouzirui/mindbloom/backend/internal/service/mood"
	therapistservice "github.com/zhouzirui/mindbloom/backend/internal/service/therapist"
	"github.com/zhouzirui/mindbloom/backend/pkg/utils"
)

// Services 汇总路由需要的服务
type Services struct {
	Sessions   *chatservice.Service
	Dispatcher *chatservice.Dispatcher
	Mood       *moodservice.Store
	Encoder    *attachment.Encoder
	Stager     *attachment.Stager
	Previews   *attachment.PreviewRegistry
	Therapists *therapistservice.Service
	Identity   *identity.Service
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svc Services) http.Handler {
	logger := logging.OrNop(svc.Logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if svc.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", svc.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		chathandler.New(svc.Sessions, svc.Dispatcher, svc.Stager, logger.Named("chat")).RegisterRoutes(api)
		stream.New(svc.Sessions, logger.Named("stream")).RegisterRoutes(api)
		attachmenthandler.New(svc.Encoder, svc.Stager, svc.Previews, logger.Named("attachment")).RegisterRoutes(api)
		moodhandler.New(svc.Mood, logger.Named("mood")).RegisterRoutes(api)
		therapisthandler.New(svc.Therapists, logger.Named("therapist")).RegisterRoutes(api)
		authhandler.New(svc.Identity, svc.Sessions, logger.Named("auth")).RegisterRoutes(api)
		voicehandler.New(svc.Sessions, svc.Dispatcher, logger.Named("voice")).RegisterRoutes(api)
	})

	return r
}
