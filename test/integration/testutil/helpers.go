//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vidmark/platform/internal/auth"
)

// UserToken mints a user-realm JWT for the given user ID.
func (env *TestEnv) UserToken(userID, name string) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmUser, userID, name, "")
	if err != nil {
		env.t.Fatalf("UserToken: %v", err)
	}
	return token
}

// AdminToken mints an admin-realm JWT.
func (env *TestEnv) AdminToken(adminID string) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmAdmin, adminID, "Admin", "admin")
	if err != nil {
		env.t.Fatalf("AdminToken: %v", err)
	}
	return token
}

// Do performs an HTTP request with optional JSON body and bearer token.
func (env *TestEnv) Do(method, path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// DecodeBody decodes a JSON response body into dst and closes the body.
func (env *TestEnv) DecodeBody(resp *http.Response, dst interface{}) {
	env.t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		env.t.Fatalf("decode body: %v", err)
	}
}

// CountPendingEvents returns the number of unpublished domain events.
func (env *TestEnv) CountPendingEvents() int {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT count(*) FROM domain_events WHERE is_published = false").Scan(&count)
	if err != nil {
		env.t.Fatalf("CountPendingEvents: %v", err)
	}
	return count
}

// CountPublishedEvents returns the number of published domain events.
func (env *TestEnv) CountPublishedEvents() int {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT count(*) FROM domain_events WHERE is_published = true").Scan(&count)
	if err != nil {
		env.t.Fatalf("CountPublishedEvents: %v", err)
	}
	return count
}

// CountNotifications returns how many notification rows the user has.
func (env *TestEnv) CountNotifications(userID string) int {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT count(*) FROM notifications WHERE recipient_id = $1", userID).Scan(&count)
	if err != nil {
		env.t.Fatalf("CountNotifications: %v", err)
	}
	return count
}
