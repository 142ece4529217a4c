package graph

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/paygate/middleware/auth"
	"github.com/tech-arch1tect/paygate/services/user"
)

type wireResponse struct {
	Data   map[string]interface{} `json:"data"`
	Errors []struct {
		Message    string                 `json:"message"`
		Extensions map[string]interface{} `json:"extensions"`
	} `json:"errors"`
}

func serve(t *testing.T, h echo.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, wireResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	require.NoError(t, h(c))

	var body wireResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandler_Serve(t *testing.T) {
	f := newFixture(t)
	owner := f.seed(t, "owner@example.com", user.RoleUser)
	handler := NewHandler(f.schema, f.logger)

	t.Run("post with identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ me { email } }"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		identity := owner.Identity()
		req = req.WithContext(auth.WithIdentity(req.Context(), &identity))

		rec, body := serve(t, handler.Serve, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, body.Errors)
		assert.Equal(t, "owner@example.com", body.Data["me"].(map[string]interface{})["email"])
	})

	t.Run("get with variables", func(t *testing.T) {
		params := url.Values{}
		params.Set("query", `query Get($id: Int!) { getUser(userId: $id) { email } }`)
		params.Set("variables", `{"id": 1}`)
		req := httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil)

		rec, body := serve(t, handler.Serve, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, CodeUnauthenticated, body.Errors[0].Extensions["code"])
	})

	t.Run("get refuses mutations", func(t *testing.T) {
		params := url.Values{}
		params.Set("query", `mutation { createUser(input: {firstname: "Eve", lastname: "Mallory", email: "eve@example.com", password: "password123", username: "eve", phone: {prefix: "234", number: "8012345678"}, country: "NG", state: "Lagos", gender: FEMALE}) }`)
		req := httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil)

		rec, body := serve(t, handler.Serve, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, http.MethodPost, rec.Header().Get(echo.HeaderAllow))
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "BAD_REQUEST", body.Errors[0].Extensions["code"])

		users, err := f.users.List(req.Context())
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("get picks the named operation", func(t *testing.T) {
		params := url.Values{}
		params.Set("query", `query Me { me { email } } mutation Out { logout }`)
		params.Set("operationName", "Out")
		req := httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil)

		rec, _ := serve(t, handler.Serve, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

		params.Set("operationName", "Me")
		req = httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil)

		rec, body := serve(t, handler.Serve, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, body.Data["me"])
	})

	t.Run("get with an unreadable document", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape("{ me { email }"), nil)

		rec, body := serve(t, handler.Serve, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", body.Errors[0].Extensions["code"])
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`not json`))

		rec, body := serve(t, handler.Serve, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "BAD_REQUEST", body.Errors[0].Extensions["code"])
	})

	t.Run("missing query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"  "}`))

		rec, body := serve(t, handler.Serve, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "query is required", body.Errors[0].Message)
	})

	t.Run("invalid query is reported, not hidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ nope }"}`))

		rec, body := serve(t, handler.Serve, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, body.Errors)
		assert.NotEqual(t, internalErrorMessage, body.Errors[0].Message)
	})
}

func TestReloginResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)

	rec, body := serve(t, ReloginResponse, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "RELOGIN", body.Errors[0].Message)
	assert.Equal(t, CodeRelogin, body.Errors[0].Extensions["code"])
}

func TestUserError_Extensions(t *testing.T) {
	assert.Equal(t, map[string]interface{}{"code": CodeUser}, (&UserError{Message: "x"}).Extensions())
	assert.Equal(t, map[string]interface{}{"code": CodeForbidden}, errForbidden.Extensions())
	assert.Equal(t, "x", NewUserError("x").Error())
}
