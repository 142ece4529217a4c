package graph

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/paygate/services/logging"
)

type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type Handler struct {
	schema *graphql.Schema
	logger *logging.Service
}

func NewHandler(schema *graphql.Schema, logger *logging.Service) *Handler {
	return &Handler{
		schema: schema,
		logger: logger,
	}
}

// Serve executes a query sent either as a JSON POST body or as GET
// parameters. GET may only run queries. Resolver failures are reported in
// the body with status 200.
func (h *Handler) Serve(c echo.Context) error {
	var req Request

	if c.Request().Method == http.MethodGet {
		req.Query = c.QueryParam("query")
		req.OperationName = c.QueryParam("operationName")
		if vars := c.QueryParam("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				return errorResponse(c, http.StatusBadRequest, "variables must be a JSON object", "BAD_REQUEST")
			}
		}
	} else if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return errorResponse(c, http.StatusBadRequest, "request body must be a JSON object", "BAD_REQUEST")
	}

	if strings.TrimSpace(req.Query) == "" {
		return errorResponse(c, http.StatusBadRequest, "query is required", "BAD_REQUEST")
	}

	if c.Request().Method == http.MethodGet {
		switch selectedOperation(req.Query, req.OperationName) {
		case operationQuery:
		case "":
			return errorResponse(c, http.StatusBadRequest, "GET requests must select a single query operation", "BAD_REQUEST")
		default:
			c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
			return errorResponse(c, http.StatusMethodNotAllowed, "only queries may be sent with GET", "BAD_REQUEST")
		}
	}

	resp := h.schema.Exec(c.Request().Context(), req.Query, req.OperationName, req.Variables)
	resp.Errors = FormatErrors(resp.Errors, h.logger)

	return c.JSON(http.StatusOK, resp)
}

// ReloginResponse answers a request whose access and refresh tokens were
// both rejected.
func ReloginResponse(c echo.Context) error {
	return errorResponse(c, http.StatusUnauthorized, CodeRelogin, CodeRelogin)
}

func errorResponse(c echo.Context, status int, message, code string) error {
	return c.JSON(status, &graphql.Response{
		Errors: []*gqlerrors.QueryError{{
			Message:    message,
			Extensions: map[string]interface{}{"code": code},
		}},
	})
}
