package ratelimit_test

import (
	"context"
	"fmt"

	"volley/internal/ratelimit"
)

func ExampleNewRateLimiter() {
	// Allow at most 100 requests per second across all workers.
	limiter := ratelimit.NewRateLimiter(100)

	for i := 0; i < 5; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			fmt.Println("context cancelled")
			return
		}
	}

	fmt.Println("rps:", limiter.RPS())
	// Output: rps: 100
}
