package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/eventsync-services/common/response"
)

// HandlerFunc is the Lambda proxy handler signature every service handler uses
type HandlerFunc func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Middleware wraps a HandlerFunc
type Middleware func(HandlerFunc) HandlerFunc

// Access is the identity a route requires
type Access int

const (
	// Public routes accept anonymous callers; a valid token is still resolved.
	Public Access = iota
	// Authenticated routes accept any signed-in attendee or administrator.
	Authenticated
	AttendeeOnly
	AdminOnly
)

// Route binds a method and path template ("/api/events/{id}") to a handler
type Route struct {
	Method  string
	Path    string
	Access  Access
	Handler HandlerFunc
}

// Router holds the route table shared by the Lambda entrypoints and the local
// HTTP server.
type Router struct {
	routes      []Route
	resolver    IdentityResolver
	middlewares []Middleware
}

// New creates a router. Middlewares run outermost first around every route.
func New(resolver IdentityResolver, middlewares ...Middleware) *Router {
	return &Router{resolver: resolver, middlewares: middlewares}
}

// Add registers routes
func (r *Router) Add(routes ...Route) {
	r.routes = append(r.routes, routes...)
}

// Routes returns the registered routes
func (r *Router) Routes() []Route {
	return r.routes
}

func (r *Router) wrap(route Route) HandlerFunc {
	h := Authenticate(r.resolver, route.Access)(route.Handler)
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i](h)
	}
	return h
}

// Handler returns a Lambda handler that dispatches on method and resource.
// API Gateway proxy integrations set Resource to the matched template; when it
// is absent the request path is matched against the templates instead.
func (r *Router) Handler() HandlerFunc {
	return func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		if request.HTTPMethod == http.MethodOptions {
			return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}, nil
		}

		pathMatched := false
		for _, route := range r.routes {
			params, ok := matchRoute(route.Path, request)
			if !ok {
				continue
			}
			pathMatched = true
			if route.Method != request.HTTPMethod {
				continue
			}

			request.Resource = route.Path
			if request.PathParameters == nil {
				request.PathParameters = params
			}
			return r.wrap(route)(ctx, request)
		}

		if pathMatched {
			return response.Message(http.StatusMethodNotAllowed, "Method not allowed")
		}
		return response.Message(http.StatusNotFound, "Not Found")
	}
}

func matchRoute(template string, request events.APIGatewayProxyRequest) (map[string]string, bool) {
	if request.Resource != "" && request.Resource != "/{proxy+}" {
		return nil, request.Resource == template
	}
	return matchPath(template, request.Path)
}

// matchPath matches "/api/events/{id}" against "/api/events/7"
func matchPath(template, path string) (map[string]string, bool) {
	tParts := strings.Split(strings.Trim(template, "/"), "/")
	pParts := strings.Split(strings.Trim(path, "/"), "/")
	if len(tParts) != len(pParts) {
		return nil, false
	}

	params := map[string]string{}
	for i, t := range tParts {
		if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
			if pParts[i] == "" {
				return nil, false
			}
			params[t[1:len(t)-1]] = pParts[i]
			continue
		}
		if t != pParts[i] {
			return nil, false
		}
	}
	return params, true
}
