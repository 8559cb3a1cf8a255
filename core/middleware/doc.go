// Package middleware contains HTTP middleware for the Fiber application.
//
//   - auth: API key validation. Disabled when no key is configured.
//   - rayid: tags every request with a ray id, stored in locals and echoed
//     in the X-Ray-ID response header for tracing.
package middleware
