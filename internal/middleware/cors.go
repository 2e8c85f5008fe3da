package middleware

import (
	"github.com/valyala/fasthttp"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Accept, X-Request-ID"
)

// CORS lets the board frontend call the API from another origin. A "*" entry
// allows any origin. Preflight requests are answered directly.
func CORS(allowed []string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	allowAny := false
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAny = true
		}
		set[origin] = struct{}{}
	}

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			origin := string(ctx.Request.Header.Peek("Origin"))
			if origin != "" {
				if _, ok := set[origin]; ok || allowAny {
					if allowAny {
						ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
					} else {
						ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
						ctx.Response.Header.Add("Vary", "Origin")
					}
					ctx.Response.Header.Set("Access-Control-Allow-Methods", corsMethods)
					ctx.Response.Header.Set("Access-Control-Allow-Headers", corsHeaders)
					ctx.Response.Header.Set("Access-Control-Expose-Headers", "X-Request-ID")
				}
			}

			if ctx.IsOptions() && len(ctx.Request.Header.Peek("Access-Control-Request-Method")) > 0 {
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}

// Chain applies middlewares so the first one listed runs outermost.
func Chain(h fasthttp.RequestHandler, mws ...func(fasthttp.RequestHandler) fasthttp.RequestHandler) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
