package router

import (
	"encoding/base64"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gorilla/mux"

	"github.com/eventsync-services/common/logger"
)

// Mount registers every route on a gorilla/mux router, adapting net/http
// requests into API Gateway proxy requests.
func (r *Router) Mount(m *mux.Router, maxBodyBytes int64) {
	for _, route := range r.routes {
		route := route
		h := r.wrap(route)
		m.HandleFunc(route.Path, func(w http.ResponseWriter, req *http.Request) {
			proxyReq, err := adaptRequest(w, req, maxBodyBytes)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, `{"message":"Request body too large"}`, http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, `{"message":"Failed to read request"}`, http.StatusBadRequest)
				return
			}
			proxyReq.Resource = route.Path
			proxyReq.PathParameters = mux.Vars(req)

			resp, err := h(req.Context(), proxyReq)
			if err != nil {
				logger.WithContext(req.Context()).WithError(err).Error("handler returned error")
				http.Error(w, `{"message":"Internal server error"}`, http.StatusInternalServerError)
				return
			}
			writeResponse(w, resp)
		}).Methods(route.Method)
	}
}

// adaptRequest converts http.Request to APIGatewayProxyRequest
func adaptRequest(w http.ResponseWriter, r *http.Request, maxBodyBytes int64) (events.APIGatewayProxyRequest, error) {
	if maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}
	defer r.Body.Close()

	headers := make(map[string]string)
	for key, values := range r.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	queryParams := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}

	sourceIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		sourceIP = host
	}

	return events.APIGatewayProxyRequest{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		Headers:               headers,
		QueryStringParameters: queryParams,
		Body:                  string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  sourceIP,
				UserAgent: r.UserAgent(),
			},
		},
	}, nil
}

// writeResponse writes APIGatewayProxyResponse to http.ResponseWriter
func writeResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			http.Error(w, `{"message":"Failed to encode response"}`, http.StatusInternalServerError)
			return
		}
		body = decoded
	}

	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}
