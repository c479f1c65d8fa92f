package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"hotel-ops-backend/config"
	"hotel-ops-backend/internal/mw"
	"hotel-ops-backend/internal/sim"
	"hotel-ops-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, engine *sim.Engine, s store.Store, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(engine, s, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Menu and history tolerate a short cache window. Status is the live
	// view and is never cached.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/status", handler.GetStatus)
		api.GET("/menu", caching, handler.GetMenu)
		api.GET("/history", caching, handler.GetHistory)

		api.POST("/guests", handler.PostGuest)
		api.POST("/rooms", handler.PostRoom)
		api.POST("/rooms/:room_id/clean", handler.PostClean)
		api.POST("/rooms/:room_id/deliver", handler.PostDeliver)
		api.POST("/staff/bellboy", handler.PostBellboy)
		api.POST("/staff/cleaners", handler.PostCleaner)
		api.POST("/menu/select", handler.PostSelectItem)
		api.POST("/ledger/earn", handler.PostEarn)
		api.POST("/reset", handler.PostReset)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
