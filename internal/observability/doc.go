// Package observability provides structured logging for the logistics
// assistant.
//
// Loggers are zap based. Request-scoped loggers carry the chi request ID so
// pipeline stages running on worker goroutines can be correlated with the
// HTTP request that started them.
package observability
