package types

const ContextUserKey = "user"

const ContextRequestIDKey = "requestID"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)
