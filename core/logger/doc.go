// Package logger builds the zap logger used across the service.
//
// Level "debug" selects zap's development config, anything else the production
// config; Format selects console or json encoding. WithRayID attaches the
// request ray id set by the rayid middleware so request logs can be correlated.
//
//	log, _ := logger.New(&cfg.Log)
//	logger.WithRayID(log, c).Error("Handler failed", zap.Error(err))
package logger
