// Package middleware содержит готовые middleware для core.Runtime.
//
// Порядок подключения в сервисах:
//
//	rt.Use(middleware.Recovery(logger))
//	rt.Use(middleware.Logging(logger))
//	rt.Use(middleware.Metrics(metrics))
//	rt.Use(middleware.RequestID())
//	rt.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
//
// Имя action и номер попытки middleware берут из context.Context
// (action.InvocationFromContext).
package middleware
