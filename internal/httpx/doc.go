// Package httpx provides the HTTP client, request, and response types used
// by simulated users. The client keeps a cookie jar so a session's CSRF and
// auth cookies survive across requests, and every response is buffered so
// callers can read the body more than once.
package httpx
