package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/galatadergisi/galata-backend/api/controllers"
	"github.com/galatadergisi/galata-backend/api/middleware"
	"github.com/galatadergisi/galata-backend/internal/contributions"
	"github.com/galatadergisi/galata-backend/internal/magazines"
	"github.com/galatadergisi/galata-backend/pkg/config"
	"github.com/galatadergisi/galata-backend/pkg/db"
	"github.com/galatadergisi/galata-backend/pkg/logger"
	"github.com/galatadergisi/galata-backend/pkg/metrics"
	"github.com/galatadergisi/galata-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	contributionService contributions.Service,
	uploadStore controllers.FileStore,
	magazineService magazines.Service,
	index controllers.IndexSource,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins, cfg.App.IsDev()),
	)

	readyDeps := map[string]controllers.Pinger{}
	if dbP != nil {
		readyDeps["db"] = dbP
	}
	var limiter middleware.RateLimitStore
	if redisClient != nil {
		readyDeps["redis"] = redisClient
		limiter = redisClient
	}

	submissionPolicy := middleware.NewRateLimitPolicy(
		"submission",
		cfg.RateLimit.SubmissionWindow,
		cfg.RateLimit.SubmissionIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.With(middleware.RateLimit(submissionPolicy, limiter, logg)).
		Post("/katkida-bulunun", controllers.SubmitContribution(contributionService, uploadStore, logg))

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Compress(5))

		r.Get("/magazines", controllers.ListMagazines(magazineService, logg))
		r.Get("/magazines/{index}/pages", controllers.MagazinePages(magazineService, logg))
		if cfg.App.IsDev() {
			r.Get("/magazines/{index}/audio/{file}", controllers.MagazineAudio(cfg.Magazines.StaticDir))
		}

		issue := controllers.IssueIndex(index, logg)
		r.Get("/dergiler/{issue:sayi[0-9]+}", issue)
		r.Get("/dergiler/{issue:sayi[0-9]+}/{page:[0-9]+}", issue)

		r.Get("/*", http.FileServer(http.Dir(cfg.Magazines.StaticDir)).ServeHTTP)
	})

	return r
}
