// Package requestid tags every HTTP request with a correlation id.
//
// Middleware accepts a client supplied X-Request-ID when it is at most 128
// characters of [A-Za-z0-9_-], and otherwise generates a UUIDv7. The id is
// stored in the request context and set on the response before the next
// handler runs, so rejected requests carry it too.
//
// LoggerExtractor plugs into logger.WithContextExtractors so records logged
// with a request context, such as rate limiter backend failures, include
// request_id.
package requestid
