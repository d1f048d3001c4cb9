// Package middleware holds the HTTP middleware used by the prediction
// service. Each middleware has the form func(http.Handler) http.Handler
// so they chain with mux.Router.Use:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.Logging(logger))
//	router.Use(middleware.PanicRecovery(logger))
package middleware
