package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type CORSMiddlewareBuilder struct {
	allowOrigins     map[string]struct{}
	allowAll         bool
	allowMethods     string
	allowHeaders     string
	exposeHeaders    string
	allowCredentials bool
	maxAge           string
}

func NewCORSMiddlewareBuilder(allowOrigins, allowMethods, allowHeaders, exposeHeaders []string, allowCredentials bool, maxAge time.Duration) *CORSMiddlewareBuilder {
	b := &CORSMiddlewareBuilder{
		allowOrigins:     make(map[string]struct{}, len(allowOrigins)),
		allowMethods:     strings.Join(allowMethods, ","),
		allowHeaders:     strings.Join(allowHeaders, ","),
		exposeHeaders:    strings.Join(exposeHeaders, ","),
		allowCredentials: allowCredentials,
		maxAge:           strconv.Itoa(int(maxAge.Seconds())),
	}
	for _, o := range allowOrigins {
		if o == "*" {
			b.allowAll = true
		}
		b.allowOrigins[o] = struct{}{}
	}
	return b
}

func (b *CORSMiddlewareBuilder) Build() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		if origin == "" {
			ctx.Next()
			return
		}
		if _, ok := b.allowOrigins[origin]; !ok && !b.allowAll {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		h := ctx.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		if b.allowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if b.exposeHeaders != "" {
			h.Set("Access-Control-Expose-Headers", b.exposeHeaders)
		}
		if ctx.Request.Method == http.MethodOptions {
			if b.allowMethods != "" {
				h.Set("Access-Control-Allow-Methods", b.allowMethods)
			}
			if b.allowHeaders != "" {
				h.Set("Access-Control-Allow-Headers", b.allowHeaders)
			}
			h.Set("Access-Control-Max-Age", b.maxAge)
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}
