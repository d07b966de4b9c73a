package session_test

import (
	"context"
	"fmt"

	"volley/internal/core"
	"volley/internal/session"
)

func ExampleSession_Start() {
	provider := core.ProviderFunc(func(ctx context.Context) (core.Outcome, error) {
		return core.Success, nil
	})

	s, err := session.New(session.Params{Count: 25, Workers: 5, Provider: provider})
	if err != nil {
		fmt.Println(err)
		return
	}

	res, _ := s.Start(context.Background())
	fmt.Printf("batches=%v succeeded=%d reason=%s\n", s.Batches(), res.Succeeded, res.Reason)
	// Output: batches=[10 10 5] succeeded=25 reason=completed
}

func ExampleNew_invalid() {
	_, err := session.New(session.Params{Count: 10, Workers: 0, Provider: core.ProviderFunc(nil)})
	fmt.Println(err)
	// Output: invalid workers: must be >= 1, got 0
}
