// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// SecureHeaders sets a baseline header set on every response. The API
// serves JSON only, so framing is denied outright and responses are
// marked as not sniffable.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		// Responses carry their real Content-Type; never sniff.
		h.Set("X-Content-Type-Options", "nosniff")

		// No endpoint renders markup, so nothing may embed us.
		h.Set("X-Frame-Options", "DENY")

		// The legacy XSS auditor does more harm than good.
		h.Set("X-XSS-Protection", "0")

		// Cross-origin navigations get the origin only.
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
