package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field permite armar listas de campos sin importar zap.
type Field = zap.Field

// --- HTTP ---

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field { return zap.String("method", v) }
func Path(v string) zap.Field { return zap.String("path", v) }
func Status(v int) zap.Field { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// --- Dominio ---

// UserID es el id numérico del usuario.
func UserID(v int64) zap.Field { return zap.Int64("user_id", v) }

// ChatID es el id del chat.
func ChatID(v int64) zap.Field { return zap.Int64("chat_id", v) }

// MessageID es el id del mensaje.
func MessageID(v int64) zap.Field { return zap.Int64("message_id", v) }

// Event es el tipo de evento de notificación (chat_created, message_sent...).
func Event(v string) zap.Field { return zap.String("event", v) }

// Recipients cuenta los destinatarios de un evento.
func Recipients(n int) zap.Field { return zap.Int("recipients", n) }

// Email: cuidado en prod, solo en debug.
func Email(v string) zap.Field { return zap.String("email", v) }

// --- Sistema ---

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer: handler, service, store, broker.
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Count(v int) zap.Field { return zap.Int("count", v) }
func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
