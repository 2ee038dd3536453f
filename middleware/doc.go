// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, PATCH, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key, X-Voter-Token.

# Admin Gate

Registration and operator routes require the configured admin key:

	mux.HandleFunc("POST /candidates",
		middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKey, h.Register)))

# JSON Helpers

Every response uses the {success, data?, message?} envelope:

	middleware.JSONResponse(w, http.StatusOK, data)     // {"success":true,"data":...}
	middleware.ErrorResponse(w, http.StatusConflict, "You have already voted")

Parse JSON request bodies:

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Only a salted hash of it is stored with a voter session.
*/
package middleware
