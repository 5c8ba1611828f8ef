package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrUnavailable = errors.New("db: store unavailable")
	ErrBadBound    = errors.New("db: invalid range bound")
)

// Op constants map to Redis command names for error context.
const (
	OpPing        = "PING"
	OpGet         = "GET"
	OpMGet        = "MGET"
	OpSet         = "SET"
	OpDel         = "DEL"
	OpExists      = "EXISTS"
	OpIncr        = "INCR"
	OpSAdd        = "SADD"
	OpSRem        = "SREM"
	OpSMembers    = "SMEMBERS"
	OpSCard       = "SCARD"
	OpZAdd        = "ZADD"
	OpZRem        = "ZREM"
	OpZRangeByLex = "ZRANGEBYLEX"
	OpLPush       = "LPUSH"
	OpBRPop       = "BRPOP"
)

// Error wraps an underlying error with the operation name for diagnostics.
//
// Every Error reports itself as ErrUnavailable so callers can map backend
// failures to a single condition without knowing the driver.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrUnavailable for any wrapped backend failure.
func (e *Error) Is(target error) bool { return target == ErrUnavailable }
