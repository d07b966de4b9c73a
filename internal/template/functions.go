package template

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// funcRegistry holds the functions usable as ${name(args)}.
var funcRegistry = map[string]func(args string) (string, error){
	"uuid":          fnUUID,
	"timestamp":     fnTimestamp,
	"timestamp_ms":  fnTimestampMs,
	"random":        fnRandom,
	"random_string": fnRandomString,
	"date":          fnDate,
}

// evalFunction evaluates a built-in function call.
// Returns the result string, or empty string and false if not a function.
func evalFunction(expr string) (string, bool, error) {
	// Check if it looks like a function call (contains parentheses)
	parenIdx := strings.Index(expr, "(")
	if parenIdx == -1 || !strings.HasSuffix(expr, ")") {
		return "", false, nil
	}

	funcName := expr[:parenIdx]
	args := expr[parenIdx+1 : len(expr)-1]

	fn, ok := funcRegistry[funcName]
	if !ok {
		return "", false, nil
	}

	result, err := fn(args)
	if err != nil {
		return "", true, fmt.Errorf("function %s: %w", funcName, err)
	}
	return result, true, nil
}

// noArgs wraps a function that takes no arguments.
func noArgs(name string, fn func() string) func(string) (string, error) {
	return func(args string) (string, error) {
		if strings.TrimSpace(args) != "" {
			return "", fmt.Errorf("%s() takes no arguments", name)
		}
		return fn(), nil
	}
}

var (
	fnUUID        = noArgs("uuid", uuid.NewString)
	fnTimestamp   = noArgs("timestamp", func() string { return strconv.FormatInt(time.Now().Unix(), 10) })
	fnTimestampMs = noArgs("timestamp_ms", func() string { return strconv.FormatInt(time.Now().UnixMilli(), 10) })
)

// fnRandom returns an integer in [lo, hi]. Usage: random(lo,hi)
func fnRandom(args string) (string, error) {
	lo, hi, ok := strings.Cut(args, ",")
	if !ok || strings.Contains(hi, ",") {
		return "", fmt.Errorf("random(lo,hi) requires exactly 2 arguments")
	}
	low, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid lower bound: %w", err)
	}
	high, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid upper bound: %w", err)
	}
	if low > high {
		return "", fmt.Errorf("lower bound %d is above upper bound %d", low, high)
	}

	n, err := rand.Int(rand.Reader, big.NewInt(high-low+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(low+n.Int64(), 10), nil
}

// fnRandomString generates a random alphanumeric string of the specified length.
// Usage: random_string(length)
func fnRandomString(args string) (string, error) {
	length, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return "", fmt.Errorf("invalid length: %w", err)
	}
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	if length > 1000 {
		return "", fmt.Errorf("length must be <= 1000")
	}

	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}

	return string(result), nil
}

// fnDate formats the current time using Go's time format.
// Usage: date(format) where format uses Go's reference time (2006-01-02 15:04:05)
// Common formats:
//   - date(2006-01-02) -> 2024-01-15
//   - date(15:04:05) -> 14:30:00
//   - date(2006-01-02T15:04:05Z07:00) -> ISO 8601
func fnDate(args string) (string, error) {
	format := strings.TrimSpace(args)
	if format == "" {
		format = time.RFC3339
	}
	return time.Now().Format(format), nil
}
