package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/moodica/internal/config"
	"github.com/moodica/internal/handler"
	"github.com/moodica/internal/logging"
	"github.com/moodica/internal/metrics"
	"github.com/moodica/internal/schema"
	"go.uber.org/zap"
)

const sessionName = "moodica_session"

// SetupRouter 配置 Gin 引擎、中间件和全部路由。
func SetupRouter(cfg config.AppConfig, api *handler.API, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	r.Use(logging.RequestLogger(logger))
	r.Use(m.Middleware())
	r.Use(cors.New(corsConfig(cfg)))

	// 会话仅用于陪伴对话的 conversation_id 延续
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/", api.Root)
	r.GET("/test", api.Diagnostics)
	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", m.Handler())
	r.GET("/compliance", api.Compliance)

	// 心情与烦恼支持列表查询
	r.POST("/mood", api.CreateRecord(schema.KindMoodEntry))
	r.GET("/mood", api.ListMoods)
	r.POST("/worry", api.CreateRecord(schema.KindWorry))
	r.GET("/worry", api.ListWorries)

	r.POST("/assessment", api.CreateRecord(schema.KindAssessmentResult))
	r.POST("/crisis-plan", api.CreateRecord(schema.KindCrisisPlan))
	r.POST("/thought-challenge", api.CreateRecord(schema.KindThoughtChallenge))
	r.POST("/meditation", api.CreateRecord(schema.KindMeditationSession))

	r.POST("/habit", api.CreateRecord(schema.KindHabit))
	r.POST("/habit/log", api.CreateRecord(schema.KindHabitLog))
	r.POST("/recovery", api.CreateRecord(schema.KindRecovery))
	r.POST("/recovery/log", api.CreateRecord(schema.KindRecoveryLog))

	r.POST("/garden", api.CreateRecord(schema.KindGarden))
	r.POST("/reflection", api.CreateRecord(schema.KindReflection))
	r.POST("/settings", api.CreateRecord(schema.KindUserSettings))

	r.POST("/chat", api.Chat)

	return r
}

func corsConfig(cfg config.AppConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if cfg.AllowAllOrigins() {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}
	corsCfg.AllowOrigins = cfg.CORSOrigins
	corsCfg.AllowCredentials = true
	return corsCfg
}
