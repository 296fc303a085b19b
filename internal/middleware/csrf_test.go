// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// issueToken runs one GET through the middleware and returns the token
// cookie it set.
func issueToken(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			return c
		}
	}
	t.Fatal("middleware did not set a CSRF cookie")
	return nil
}

func TestCSRFCookieAttributes(t *testing.T) {
	for _, secure := range []bool{true, false} {
		handler := NewCSRF(secure)(okHandler())
		cookie := issueToken(t, handler)

		if cookie.Value == "" {
			t.Error("token cookie is empty")
		}
		if cookie.Secure != secure {
			t.Errorf("Secure: got %v, want %v", cookie.Secure, secure)
		}
		if cookie.SameSite != http.SameSiteStrictMode {
			t.Errorf("SameSite: got %v, want StrictMode", cookie.SameSite)
		}
		// Clients must read the cookie to echo it in the header.
		if cookie.HttpOnly {
			t.Error("token cookie must not be HttpOnly")
		}
	}
}

func TestCSRFMutationsNeedMatchingHeader(t *testing.T) {
	handler := NewCSRF(false)(okHandler())
	cookie := issueToken(t, handler)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusForbidden},
		{"wrong token", "deadbeef", http.StatusForbidden},
		{"matching token", cookie.Value, http.StatusOK},
	}

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		for _, tt := range tests {
			t.Run(method+" "+tt.name, func(t *testing.T) {
				req := httptest.NewRequest(method, "/api/content", nil)
				req.AddCookie(cookie)
				if tt.header != "" {
					req.Header.Set(CSRFHeaderName, tt.header)
				}
				rr := httptest.NewRecorder()
				handler.ServeHTTP(rr, req)
				if rr.Code != tt.want {
					t.Errorf("got %d, want %d", rr.Code, tt.want)
				}
			})
		}
	}
}

func TestCSRFRejectionBodyIsJSON(t *testing.T) {
	handler := NewCSRF(false)(okHandler())
	cookie := issueToken(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/content", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	if !strings.Contains(rr.Body.String(), "invalid_csrf_token") {
		t.Errorf("body missing error code: %s", rr.Body.String())
	}
}

func TestCSRFReadsPassWithoutToken(t *testing.T) {
	handler := NewCSRF(false)(okHandler())

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		req := httptest.NewRequest(method, "/api/content", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", method, rr.Code)
		}
	}
}

func TestCSRFFormFieldFallback(t *testing.T) {
	// Multipart asset uploads send the token in the query string because
	// the browser owns those request headers during file submission.
	handler := NewCSRF(false)(okHandler())
	cookie := issueToken(t, handler)

	req := httptest.NewRequest(http.MethodPost,
		"/api/admin/assets?"+CSRFFormField+"="+cookie.Value, nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("query string token: got %d, want 200", rr.Code)
	}

	// A small urlencoded form carrying the token also passes.
	form := strings.NewReader(CSRFFormField + "=" + cookie.Value)
	req = httptest.NewRequest(http.MethodPost, "/api/admin/assets", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("form body token: got %d, want 200", rr.Code)
	}
}

// A query-string token must leave the upload body for the handler; the
// middleware has no business parsing it.
func TestCSRFQueryTokenLeavesBodyUnread(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	var got string
	handler := NewCSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("handler read body: %v", err)
		}
		got = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	cookie := issueToken(t, handler)

	req := httptest.NewRequest(http.MethodPost,
		"/api/admin/assets?"+CSRFFormField+"="+cookie.Value, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/octet-stream")
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if got != payload {
		t.Errorf("handler saw %d body bytes, want %d intact", len(got), len(payload))
	}
}

// The form-body fallback only reads a bounded amount: a tokenless POST
// dragging a huge body gets its 403 without the middleware buffering the
// whole thing.
func TestCSRFOversizedTokenlessBodyRejected(t *testing.T) {
	reached := false
	handler := NewCSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))
	cookie := issueToken(t, handler)
	// issueToken's setup GET passes through the middleware and reaches
	// the handler; reset so the flag reflects the POST below only.
	reached = false

	huge := io.MultiReader(
		strings.NewReader(CSRFFormField+"="),
		strings.NewReader(strings.Repeat("a", maxCSRFFormBody+1)),
	)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/assets", huge)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if reached {
		t.Error("handler ran for an oversized tokenless request")
	}
	if rr.Code != http.StatusForbidden {
		t.Errorf("got %d, want 403", rr.Code)
	}
}

func TestCSRFTokenStableAcrossRequests(t *testing.T) {
	var seen []string
	handler := NewCSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, CSRFTokenFromCtx(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	cookie := issueToken(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(seen) != 2 {
		t.Fatalf("handler ran %d times, want 2", len(seen))
	}
	if seen[1] != cookie.Value {
		t.Errorf("second request token %q, want cookie value %q", seen[1], cookie.Value)
	}
	if seen[0] == "" || seen[1] == "" {
		t.Error("CSRFTokenFromCtx returned empty token inside handler")
	}
}

func TestCSRFTokenFromCtxOutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := CSRFTokenFromCtx(req.Context()); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}
