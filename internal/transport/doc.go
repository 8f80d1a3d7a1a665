// Package transport exposes the shop over HTTP.
//
// Routes live under /api/v1. The caller's principal is taken from the
// X-Principal header; the shop decides what that principal may do. Every
// response uses one envelope:
//
//	{"status":"ok","data":...}
//	{"status":"error","error":{"code":"OutOfStock","message":"..."}}
//
// Migration steps are deploy-time only and are not reachable over HTTP.
package transport
