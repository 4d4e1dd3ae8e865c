package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gcbaptista/imagination-concordance/config"
	"github.com/gcbaptista/imagination-concordance/internal/logging"
	"github.com/gcbaptista/imagination-concordance/services"
	"github.com/gcbaptista/imagination-concordance/web"
)

// Dependencies are the components the handlers serve.
type Dependencies struct {
	Settings  *config.Settings
	Corpus    services.CorpusReader
	Status    services.CorpusStatus
	Searcher  services.Searcher
	Sessions  services.SessionTracker
	Analytics services.AnalyticsTracker
	Logger    *slog.Logger
}

// API holds dependencies for API handlers.
type API struct {
	settings  *config.Settings
	corpus    services.CorpusReader
	status    services.CorpusStatus
	searcher  services.Searcher
	sessions  services.SessionTracker
	analytics services.AnalyticsTracker
	logger    *slog.Logger
}

// NewAPI creates a new API handler structure.
func NewAPI(deps Dependencies) *API {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		settings:  deps.Settings,
		corpus:    deps.Corpus,
		status:    deps.Status,
		searcher:  deps.Searcher,
		sessions:  deps.Sessions,
		analytics: deps.Analytics,
		logger:    logger,
	}
}

// NewRouter builds a gin engine with the middleware stack and all routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	if deps.Logger != nil {
		router.Use(logging.GinMiddleware(deps.Logger))
	}
	router.Use(CORSMiddleware())
	router.Use(RequestSizeLimitMiddleware(deps.Settings.Server.MaxBodyBytes))

	SetupRoutes(router, deps)
	return router
}

// SetupRoutes defines all the routes of the concordance service.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	apiHandler := NewAPI(deps)

	router.SetHTMLTemplate(web.Templates())
	router.StaticFS("/static", http.FS(web.Static()))

	// Operational routes, no session
	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The page is the only route that opens sessions
	router.GET("/", SessionMiddleware(deps.Sessions, deps.Settings.Session.TTL.Duration), apiHandler.PageHandler)

	requireSession := RequireSessionMiddleware(deps.Sessions)

	apiRoutes := router.Group("/api")
	{
		apiRoutes.GET("/status", apiHandler.StatusHandler)                   // Corpus load status
		apiRoutes.GET("/facets", apiHandler.FacetsHandler)                   // Filter values and toggles
		apiRoutes.GET("/records/:identifier", apiHandler.GetRecordHandler)   // Metadata of one record
		apiRoutes.POST("/search", requireSession, apiHandler.SearchHandler)  // Run a search
		apiRoutes.GET("/session", requireSession, apiHandler.SessionHandler) // Lifecycle state of this session
	}
}

// PageHandler renders the search page with the configured feature toggles.
func (api *API) PageHandler(c *gin.Context) {
	status := api.status.Status()
	c.HTML(http.StatusOK, "index.html", web.PageData{
		Title:         api.settings.Display.Title,
		Features:      api.settings.Features,
		AllCategories: allCategoriesLabel,
		Categories:    api.categories(),
		Authors:       api.corpus.Authors(),
		YearMin:       api.settings.Filters.YearMin,
		YearMax:       api.settings.Filters.YearMax,
		Loaded:        status.Loaded,
		StatusMessage: status.Message,
	})
}

// categories returns the configured category list, or the corpus's own.
func (api *API) categories() []string {
	if len(api.settings.Filters.Categories) > 0 {
		return api.settings.Filters.Categories
	}
	return api.corpus.Categories()
}
