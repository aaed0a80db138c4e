package ioc

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/config"
	"github.com/to404hanga/submission_controller/pkg/gintool"
	"github.com/to404hanga/submission_controller/web"
	"github.com/to404hanga/submission_controller/web/jwt"
	"github.com/to404hanga/submission_controller/web/middleware"
)

func InitGinServer(l loggerv2.Logger, jwtHandler jwt.Handler,
	submissionHandler *web.SubmissionHandler,
	gitSubmissionHandler *web.GitSubmissionHandler,
	assignmentHandler *web.AssignmentHandler,
	finalHandler *web.FinalHandler,
	rankingHandler *web.RankingHandler,
	userHandler *web.UserHandler,
	healthHandler *web.HealthHandler) *web.GinServer {
	var cfg config.GinConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal gin config failed, err: %v", err)
	}

	// 优先使用环境变量中设置的服务端口
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if err = config.Validate(cfg); err != nil {
		log.Panicf("invalid gin config: %v", err)
	}

	corsBuilder := middleware.NewCORSMiddlewareBuilder(
		cfg.AllowOrigins,
		cfg.AllowMethods,
		cfg.AllowHeaders,
		cfg.ExposeHeaders,
		cfg.AllowCredentials,
		time.Duration(cfg.MaxAge)*time.Second)
	jwtBuilder := middleware.NewJWTMiddlewareBuilder(jwtHandler, l, cfg.AuthPaths)

	engine := gin.Default()
	engine.Use(
		corsBuilder.Build(),
		jwtBuilder.CheckLogin(),
		gintool.ContextMiddleware(),
	)
	if cfg.EnablePprof {
		pprof.Register(engine)
	}
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	for _, h := range []web.Handler{
		submissionHandler,
		gitSubmissionHandler,
		assignmentHandler,
		finalHandler,
		rankingHandler,
		userHandler,
		healthHandler,
	} {
		h.Register(engine)
	}

	return &web.GinServer{
		Engine: engine,
		Addr:   cfg.Addr,
	}
}
