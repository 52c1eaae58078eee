package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dizmorall/srdhub/internal/testutils"
	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/srd"
	"github.com/dizmorall/srdhub/utils"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "srdhub-routes")
	if err != nil {
		panic(err)
	}
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("REDIS_ENABLED", "false")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("GIN_PATH", filepath.Join(dir, "gin.log"))
	os.Setenv("RATE_LIMIT_PER_MINUTE", "100000")
	os.Setenv("ADMIN_USERNAMES", "root")
	utils.PasswordCost = bcrypt.MinCost

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t      *testing.T
	router *gin.Engine
}

func newClient(t *testing.T) *client {
	db := testutils.SetupTestDB(t)
	return &client{t: t, router: SetupRouter(db, srd.Default())}
}

func (c *client) do(method, path, token string, body interface{}) (int, apiResponse) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (c *client) register(name string) (string, uint) {
	c.t.Helper()
	status, resp := c.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": name, "password": "secret123"})
	require.Equal(c.t, http.StatusOK, status, resp.Message)
	var data struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(c.t, json.Unmarshal(resp.Data, &data))
	return data.Token, data.User.ID
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type threadNode struct {
	Comment models.Comment   `json:"comment"`
	Replies []models.Comment `json:"replies"`
}

func TestHealthAndNotFound(t *testing.T) {
	c := newClient(t)

	status, resp := c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, resp.Code)

	status, resp = c.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 40400, resp.Code)
}

func TestPostThreadFlow(t *testing.T) {
	c := newClient(t)
	alice, _ := c.register("alice")
	bob, _ := c.register("bob")

	status, resp := c.do(http.MethodPost, "/api/v1/posts", alice, gin.H{"title": "Grappling", "content": "How does it work?", "category": "rules"})
	require.Equal(t, http.StatusOK, status, resp.Message)
	post := decode[struct {
		Post models.Post `json:"post"`
	}](t, resp.Data).Post
	commentsURL := fmt.Sprintf("/api/v1/posts/%d/comments", post.ID)

	status, resp = c.do(http.MethodPost, commentsURL, alice, gin.H{"content": "c1"})
	require.Equal(t, http.StatusOK, status, resp.Message)
	c1 := decode[struct {
		Comment models.Comment `json:"comment"`
	}](t, resp.Data).Comment

	// the generic target route reaches the same thread
	status, resp = c.do(http.MethodPost, fmt.Sprintf("/api/v1/targets/post/%d/comments", post.ID), bob, gin.H{"content": "c2", "parent_id": c1.ID})
	require.Equal(t, http.StatusOK, status, resp.Message)
	c2 := decode[struct {
		Comment models.Comment `json:"comment"`
	}](t, resp.Data).Comment

	status, resp = c.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	detail := decode[struct {
		Post   models.Post  `json:"post"`
		Thread []threadNode `json:"thread"`
	}](t, resp.Data)
	assert.Equal(t, "Grappling", detail.Post.Title)
	require.Len(t, detail.Thread, 1)
	assert.Equal(t, c1.ID, detail.Thread[0].Comment.ID)
	require.Len(t, detail.Thread[0].Replies, 1)
	assert.Equal(t, c2.ID, detail.Thread[0].Replies[0].ID)

	status, resp = c.do(http.MethodPost, commentsURL, alice, gin.H{"content": "too deep", "parent_id": c2.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40010, resp.Code)

	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", c1.ID), bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = c.do(http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", c1.ID), alice, nil)
	require.Equal(t, http.StatusOK, status, resp.Message)
	assert.EqualValues(t, 2, decode[struct {
		Removed int64 `json:"removed_comments"`
	}](t, resp.Data).Removed)

	status, resp = c.do(http.MethodGet, commentsURL, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[struct {
		Thread []threadNode `json:"thread"`
	}](t, resp.Data).Thread)

	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", c2.ID), alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPageComments(t *testing.T) {
	c := newClient(t)
	u, _ := c.register("wizard_fan")

	status, resp := c.do(http.MethodPost, "/api/v1/targets/spell/fireball/comments", u, gin.H{"content": "c3"})
	require.Equal(t, http.StatusOK, status, resp.Message)
	c3 := decode[struct {
		Comment models.Comment `json:"comment"`
	}](t, resp.Data).Comment

	status, resp = c.do(http.MethodPost, "/api/v1/targets/spell/lightning-bolt/comments", u, gin.H{"content": "reply", "parent_id": c3.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40010, resp.Code)

	status, _ = c.do(http.MethodPost, "/api/v1/targets/spell/not-a-spell/comments", u, gin.H{"content": "x"})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = c.do(http.MethodGet, "/api/v1/targets/feat/alert/comments", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = c.do(http.MethodPost, "/api/v1/targets/spell/fireball/comments", "", gin.H{"content": "anon"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp = c.do(http.MethodPost, "/api/v1/targets/spell/fireball/comments", u, gin.H{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 40011, resp.Code)

	status, resp = c.do(http.MethodGet, "/api/v1/srd/spell/Fireball", "", nil)
	require.Equal(t, http.StatusOK, status)
	page := decode[struct {
		Page   srd.Page     `json:"page"`
		Thread []threadNode `json:"thread"`
	}](t, resp.Data)
	assert.Equal(t, "fireball", page.Page.Slug)
	require.Len(t, page.Thread, 1)
	assert.Equal(t, c3.ID, page.Thread[0].Comment.ID)

	status, _ = c.do(http.MethodGet, "/api/v1/srd/spell/not-a-spell", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = c.do(http.MethodGet, "/api/v1/srd/monster", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthAndAdministration(t *testing.T) {
	c := newClient(t)
	root, _ := c.register("root")
	victim, victimID := c.register("victim")
	other, _ := c.register("other")

	status, resp := c.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "VICTIM", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 40900, resp.Code)

	status, _ = c.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "victim", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = c.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "Victim", "password": "secret123"})
	assert.Equal(t, http.StatusOK, status)

	status, resp = c.do(http.MethodPost, "/api/v1/posts", victim, gin.H{"title": "P2", "content": "body"})
	require.Equal(t, http.StatusOK, status, resp.Message)
	p2 := decode[struct {
		Post models.Post `json:"post"`
	}](t, resp.Data).Post
	status, _ = c.do(http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", p2.ID), other, gin.H{"content": "on p2"})
	require.Equal(t, http.StatusOK, status)

	status, resp = c.do(http.MethodGet, "/api/v1/users/me/posts", victim, nil)
	require.Equal(t, http.StatusOK, status, resp.Message)
	mine := decode[struct {
		Items []models.Post `json:"items"`
	}](t, resp.Data).Items
	require.Len(t, mine, 1)
	assert.Equal(t, p2.ID, mine[0].ID)

	status, resp = c.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/posts", victimID), "", nil)
	require.Equal(t, http.StatusOK, status, resp.Message)
	assert.Len(t, decode[struct {
		Items []models.Post `json:"items"`
	}](t, resp.Data).Items, 1)

	status, _ = c.do(http.MethodGet, "/api/v1/users/me/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.do(http.MethodGet, "/api/v1/users", other, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = c.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", victimID), other, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = c.do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", victimID), root, nil)
	require.Equal(t, http.StatusOK, status, resp.Message)

	status, _ = c.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", p2.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, resp = c.do(http.MethodGet, "/api/v1/auth/me", victim, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40106, resp.Code)

	status, resp = c.do(http.MethodGet, "/api/v1/users", root, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[struct {
		Items []models.User `json:"items"`
	}](t, resp.Data).Items, 2)

	status, _ = c.do(http.MethodPost, "/api/v1/auth/logout", other, nil)
	require.Equal(t, http.StatusOK, status)
	status, resp = c.do(http.MethodGet, "/api/v1/auth/me", other, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, 40104, resp.Code)
}

func TestTargetPageViews(t *testing.T) {
	c := newClient(t)

	for _, slug := range []string{"fireball", "Fireball", "missing"} {
		c.do(http.MethodGet, "/api/v1/srd/spell/"+slug, "", nil)
	}
	// thread listings are not page reads
	c.do(http.MethodGet, "/api/v1/targets/spell/fireball/comments", "", nil)

	status, resp := c.do(http.MethodGet, "/api/v1/targets/spell/fireball/stats", "", nil)
	require.Equal(t, http.StatusOK, status, resp.Message)
	stats := decode[struct {
		PV       int64 `json:"pv"`
		Comments int64 `json:"comments_count"`
	}](t, resp.Data)
	assert.EqualValues(t, 2, stats.PV)
	assert.EqualValues(t, 0, stats.Comments)

	status, resp = c.do(http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, decode[struct {
		Today int64 `json:"today_page_views"`
	}](t, resp.Data).Today)
}

func TestRequestMetricsUseRouteTemplates(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodGet, "/api/v1/posts/1", "", nil)
	c.do(http.MethodGet, "/api/v1/targets/post/11/comments", "", nil)

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `url="/api/v1/posts/:id"`)
	assert.Contains(t, body, `url="/api/v1/targets/:kind/:ref/comments"`)
	assert.NotContains(t, body, "/api/v:")
	assert.NotContains(t, body, `/posts/1"`)
}
