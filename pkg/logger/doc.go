// Package logger builds *slog.Logger instances from functional options or
// from an environment driven Config, and provides attribute helpers that
// keep key names consistent across the rate limiter, its stores and the
// daemon.
//
// New wraps the JSON or text handler in LogHandlerDecorator, which runs the
// registered ContextExtractor callbacks on every record. The request id
// middleware exposes such an extractor so each log line of a request carries
// its id without passing loggers around.
//
// # Usage
//
//	var cfg logger.Config // LOG_LEVEL, LOG_FORMAT, APP_ENV, SERVICE_NAME
//	log := logger.New(
//		logger.WithConfig(cfg),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.WarnContext(ctx, "rate limit reached",
//		logger.Identifier(ip),
//		logger.Rate(rate),
//		logger.Quota(st.RemainingAttempts(), st.ResetAt()),
//	)
package logger
