package constants

type ContextKey string

const (
	TxKey        ContextKey = "tx"
	PoolKey      ContextKey = "pool"
	PrincipalKey ContextKey = "principal"
	EndpointKey  ContextKey = "endpoint"
	LoggerKey    ContextKey = "logger"
	RequestIDKey ContextKey = "request-id"
)
