// Package logger expone un *zap.Logger global con scoping por contexto.
//
// Init se llama una vez desde main. Los middlewares HTTP inyectan un logger
// con request_id vía ToContext y services/stores lo recuperan con From(ctx):
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Signup"))
//	log.Info("account created", logger.UserID(u.ID))
//
// Sin Init, L() devuelve un logger dev en nivel info.
package logger
