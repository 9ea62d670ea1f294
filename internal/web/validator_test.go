package web

import (
	"sync"
	"testing"
)

// Run with -race: the validator is shared by every request goroutine.
func TestGenericEchoValidator_Concurrent(t *testing.T) {
	v := NewGenericEchoValidator()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := v.Validate(&textRequest{Text: "x"}); err != nil {
				t.Errorf("valid request rejected: %v", err)
			}
			if err := v.Validate(&textRequest{}); err == nil {
				t.Error("empty text accepted")
			}
		}()
	}
	wg.Wait()
}
