package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"carwash-backend/config"
	"carwash-backend/internal/attendant"
	"carwash-backend/internal/metrics"
	"carwash-backend/internal/mw"
	"carwash-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg config.ServerConfig, bay *attendant.Service, s store.Store, m *metrics.Metrics, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(bay, s, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// ledger responses stay cached until the next wash is billed
	ledgerCache := mw.NewResponseCache(cfg.CacheTTL)
	bay.InvalidateOnBilling(ledgerCache)
	caching := ledgerCache.Middleware()

	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/bay", handler.GetBay)
		api.POST("/bay/wash", handler.StartWash)
		api.POST("/bay/advance", handler.AdvanceWash)
		api.POST("/bay/reset", handler.ResetBay)

		api.GET("/washes", caching, handler.ListWashes)
		api.GET("/revenue", caching, handler.GetRevenue)

		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
