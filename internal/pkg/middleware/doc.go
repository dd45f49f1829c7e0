// Package middleware provides HTTP middleware for the card server.
//
// RateLimiter keeps one token bucket per client IP so a single hot
// README embed cannot starve everyone else:
//
//	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
//	handler = rl.Middleware(handler)
package middleware
