package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func registerTestUser(t *testing.T, ts *testServer, username, email string) (map[string]any, map[string]any) {
	status, _, body := ts.post(t, "/v1/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": "Test_1234!",
	}, nil)
	assert.Equal(t, http.StatusCreated, status)

	user, ok := body["user"].(map[string]any)
	assert.True(t, ok)
	tokens, ok := body["tokens"].(map[string]any)
	assert.True(t, ok)

	return user, tokens
}

func accessToken(t *testing.T, tokens map[string]any) *string {
	token, ok := tokens["access_token"].(string)
	assert.True(t, ok)
	return &token
}

func TestHealthcheck(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	status, _, body := ts.get(t, "/v1/healthcheck", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "available", body["status"])
}

func TestRegisterEndpoint(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	t.Run("valid registration", func(t *testing.T) {
		user, tokens := registerTestUser(t, ts, "alice", "alice@example.com")
		assert.Equal(t, "alice", user["username"])
		assert.NotEmpty(t, tokens["access_token"])
		assert.NotEmpty(t, tokens["refresh_token"])
	})

	t.Run("duplicate username", func(t *testing.T) {
		status, _, body := ts.post(t, "/v1/auth/register", map[string]string{
			"username": "alice",
			"email":    "other@example.com",
			"password": "Test_1234!",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.NotNil(t, body["error"])
	})

	t.Run("weak password", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/auth/register", map[string]string{
			"username": "bob",
			"email":    "bob@example.com",
			"password": "weak",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestLoginEndpoint(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	registerTestUser(t, ts, "alice", "alice@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		status, _, body := ts.post(t, "/v1/auth/login", map[string]string{
			"username": "alice",
			"password": "Test_1234!",
		}, nil)
		assert.Equal(t, http.StatusOK, status)

		tokens := body["tokens"].(map[string]any)
		assert.NotEmpty(t, tokens["access_token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/auth/login", map[string]string{
			"username": "alice",
			"password": "Wrong_1234!",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("unknown user", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/auth/login", map[string]string{
			"username": "nobody",
			"password": "Test_1234!",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestRefreshAndLogoutEndpoints(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, tokens := registerTestUser(t, ts, "alice", "alice@example.com")
	refreshToken := tokens["refresh_token"].(string)

	var rotated string

	t.Run("refresh rotates the token", func(t *testing.T) {
		status, _, body := ts.post(t, "/v1/auth/refresh", map[string]string{
			"refresh_token": refreshToken,
		}, nil)
		assert.Equal(t, http.StatusOK, status)

		newTokens := body["tokens"].(map[string]any)
		rotated = newTokens["refresh_token"].(string)
		assert.NotEqual(t, refreshToken, rotated)
	})

	t.Run("consumed token is rejected", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/auth/refresh", map[string]string{
			"refresh_token": refreshToken,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("logout revokes refresh tokens", func(t *testing.T) {
		status, _, body := ts.post(t, "/v1/auth/login", map[string]string{
			"username": "alice",
			"password": "Test_1234!",
		}, nil)
		assert.Equal(t, http.StatusOK, status)
		loginTokens := body["tokens"].(map[string]any)
		token := loginTokens["access_token"].(string)

		status, _, _ = ts.post(t, "/v1/auth/logout", nil, &token)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = ts.post(t, "/v1/auth/refresh", map[string]string{
			"refresh_token": rotated,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestCurrentUserEndpoint(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, tokens := registerTestUser(t, ts, "alice", "alice@example.com")

	t.Run("authenticated", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/auth/me", accessToken(t, tokens))
		assert.Equal(t, http.StatusOK, status)

		user := body["user"].(map[string]any)
		assert.Equal(t, "alice", user["username"])
	})

	t.Run("unauthenticated", func(t *testing.T) {
		status, _, _ := ts.get(t, "/v1/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestCreateSuperuserEndpoint(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, adminTokens := registerTestUser(t, ts, "admin", "admin@example.com")
	_, userTokens := registerTestUser(t, ts, "regular", "regular@example.com")

	payload := map[string]string{
		"username": "superadmin",
		"email":    "superadmin@example.com",
		"password": "Test_1234!",
	}

	t.Run("regular user denied", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/auth/create_superuser", payload, accessToken(t, userTokens))
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("anonymous denied", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/auth/create_superuser", payload, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("superuser allowed", func(t *testing.T) {
		promoteToSuperuser(t, db, "admin")

		status, _, body := ts.post(t, "/v1/auth/create_superuser", payload, accessToken(t, adminTokens))
		assert.Equal(t, http.StatusCreated, status)

		user := body["user"].(map[string]any)
		assert.Equal(t, "superadmin", user["username"])
		assert.Equal(t, true, user["is_superuser"])
		assert.NotNil(t, user["created_by"])
	})
}

// promoteToSuperuser flips the flag directly in the database, standing in for the
// seed binary that bootstraps the first superuser in a real deployment.
func promoteToSuperuser(t *testing.T, db *sql.DB, username string) {
	_, err := db.Exec("UPDATE users SET is_superuser = true WHERE username = $1", username)
	assert.NoError(t, err)
}

func TestBlogLifecycle(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, aliceTokens := registerTestUser(t, ts, "alice", "alice@example.com")
	_, bobTokens := registerTestUser(t, ts, "bob", "bob@example.com")

	alice := accessToken(t, aliceTokens)
	bob := accessToken(t, bobTokens)

	var blogID int

	t.Run("create requires authentication", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/blogs", map[string]string{"title": "T", "content": "C"}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("alice creates a blog", func(t *testing.T) {
		status, _, body := ts.post(t, "/v1/blogs", map[string]string{"title": "T", "content": "C"}, alice)
		assert.Equal(t, http.StatusCreated, status)

		blog := body["blog"].(map[string]any)
		blogID = int(blog["id"].(float64))
		assert.Equal(t, "T", blog["title"])
		assert.Equal(t, "alice", blog["author"].(map[string]any)["username"])
	})

	t.Run("bob likes the blog twice", func(t *testing.T) {
		status, _, _ := ts.post(t, fmt.Sprintf("/v1/blogs/%d/like", blogID), nil, bob)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = ts.post(t, fmt.Sprintf("/v1/blogs/%d/like", blogID), nil, bob)
		assert.Equal(t, http.StatusOK, status)

		_, _, body := ts.get(t, fmt.Sprintf("/v1/blogs/%d", blogID), nil)
		blog := body["blog"].(map[string]any)
		assert.Equal(t, float64(1), blog["likes_count"])
	})

	t.Run("bob comments", func(t *testing.T) {
		status, _, body := ts.post(t, fmt.Sprintf("/v1/blogs/%d/comment", blogID), map[string]string{"content": "Nice"}, bob)
		assert.Equal(t, http.StatusCreated, status)

		comment := body["comment"].(map[string]any)
		assert.Equal(t, "Nice", comment["content"])
	})

	t.Run("details show counts and latest comments", func(t *testing.T) {
		status, _, body := ts.get(t, fmt.Sprintf("/v1/blogs/%d/details", blogID), nil)
		assert.Equal(t, http.StatusOK, status)

		blog := body["blog"].(map[string]any)
		assert.Equal(t, float64(1), blog["likes_count"])
		assert.Equal(t, float64(1), blog["comments_count"])

		comments := blog["latest_comments"].([]any)
		assert.Len(t, comments, 1)
		assert.Equal(t, "Nice", comments[0].(map[string]any)["content"])
	})

	t.Run("bob cannot update or delete the blog", func(t *testing.T) {
		status, _, _ := ts.patch(t, fmt.Sprintf("/v1/blogs/%d", blogID), map[string]string{"title": "Hijacked"}, bob)
		assert.Equal(t, http.StatusForbidden, status)

		status, _, _ = ts.delete(t, fmt.Sprintf("/v1/blogs/%d", blogID), bob)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("alice updates the title", func(t *testing.T) {
		status, _, body := ts.patch(t, fmt.Sprintf("/v1/blogs/%d", blogID), map[string]string{"title": "T2"}, alice)
		assert.Equal(t, http.StatusOK, status)

		blog := body["blog"].(map[string]any)
		assert.Equal(t, "T2", blog["title"])
		assert.Equal(t, "C", blog["content"])
	})

	t.Run("bob unlikes", func(t *testing.T) {
		status, _, _ := ts.post(t, fmt.Sprintf("/v1/blogs/%d/unlike", blogID), nil, bob)
		assert.Equal(t, http.StatusOK, status)

		_, _, body := ts.get(t, fmt.Sprintf("/v1/blogs/%d", blogID), nil)
		blog := body["blog"].(map[string]any)
		assert.Equal(t, float64(0), blog["likes_count"])
	})

	t.Run("listing includes the blog", func(t *testing.T) {
		status, _, body := ts.get(t, "/v1/blogs?page=1&page_size=10", nil)
		assert.Equal(t, http.StatusOK, status)

		blogs := body["blogs"].([]any)
		assert.Len(t, blogs, 1)

		metadata := body["metadata"].(map[string]any)
		assert.Equal(t, float64(1), metadata["total_records"])
	})

	t.Run("alice deletes the blog", func(t *testing.T) {
		status, _, _ := ts.delete(t, fmt.Sprintf("/v1/blogs/%d", blogID), alice)
		assert.Equal(t, http.StatusOK, status)

		status, _, _ = ts.get(t, fmt.Sprintf("/v1/blogs/%d", blogID), nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestCommentEndpoints(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, aliceTokens := registerTestUser(t, ts, "alice", "alice@example.com")
	_, bobTokens := registerTestUser(t, ts, "bob", "bob@example.com")

	alice := accessToken(t, aliceTokens)
	bob := accessToken(t, bobTokens)

	_, _, body := ts.post(t, "/v1/blogs", map[string]string{"title": "T", "content": "C"}, alice)
	blogID := int(body["blog"].(map[string]any)["id"].(float64))

	_, _, body = ts.post(t, fmt.Sprintf("/v1/blogs/%d/comment", blogID), map[string]string{"content": "first"}, bob)
	commentID := int(body["comment"].(map[string]any)["id"].(float64))

	t.Run("list comments", func(t *testing.T) {
		status, _, body := ts.get(t, fmt.Sprintf("/v1/blogs/%d/comments", blogID), nil)
		assert.Equal(t, http.StatusOK, status)

		comments := body["comments"].([]any)
		assert.Len(t, comments, 1)
	})

	t.Run("author edits a comment", func(t *testing.T) {
		status, _, body := ts.patch(t, fmt.Sprintf("/v1/comments/%d", commentID), map[string]string{"content": "edited"}, bob)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "edited", body["comment"].(map[string]any)["content"])
	})

	t.Run("non-author cannot edit", func(t *testing.T) {
		status, _, _ := ts.patch(t, fmt.Sprintf("/v1/comments/%d", commentID), map[string]string{"content": "hijacked"}, alice)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("comment on missing blog", func(t *testing.T) {
		status, _, _ := ts.post(t, "/v1/blogs/999/comment", map[string]string{"content": "ghost"}, bob)
		assert.Equal(t, http.StatusNotFound, status)
	})
}
