package audit

import (
	"context"

	"github.com/gin-gonic/gin"
)

type sourceKey struct{}

// Source identifies where a request came from.
type Source struct {
	IP   string
	Path string
}

// WithSource attaches a request source to ctx.
func WithSource(ctx context.Context, src Source) context.Context {
	return context.WithValue(ctx, sourceKey{}, src)
}

// SourceFrom returns the request source stored in ctx, if any.
func SourceFrom(ctx context.Context) Source {
	src, _ := ctx.Value(sourceKey{}).(Source)
	return src
}

// RequestSource is a Gin middleware that stores the client IP and path on the
// request context so services can record them without depending on Gin.
func RequestSource() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithSource(c.Request.Context(), Source{
			IP:   c.ClientIP(),
			Path: c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
