package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	rdb redis.Cmdable
	log loggerv2.Logger
}

var _ Handler = (*HealthHandler)(nil)

func NewHealthHandler(db *gorm.DB, rdb redis.Cmdable, log loggerv2.Logger) *HealthHandler {
	return &HealthHandler{
		db:  db,
		rdb: rdb,
		log: log,
	}
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// ReadinessCheck 数据库与 redis 均可用时就绪
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx := c.Request.Context()
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.log.ErrorContext(ctx, "database not ready", logger.Error(err))
		c.Status(http.StatusServiceUnavailable)
		return
	}
	if err = h.rdb.Ping(ctx).Err(); err != nil {
		h.log.ErrorContext(ctx, "redis not ready", logger.Error(err))
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}
