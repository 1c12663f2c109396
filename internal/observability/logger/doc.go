// Package logger expone un logger Zap singleton con scoping por contexto.
//
// # Decisiones
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request tiene su propio logger "scoped" con
//     request_id, method y path, inyectado por el middleware de logging.
//   - Environments: "dev" usa consola con colores; "staging" y "prod" JSON
//     con service, version y env como campos base.
//   - Secretos: nunca se loguean tokens ni client secrets. Usar StateToken,
//     Email y Sanitize para valores sensibles o controlados por el usuario.
//
// # Uso
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Provider("line"), logger.Phase("callback"))
//	log.Warn("state not found", logger.StateToken(state))
package logger
