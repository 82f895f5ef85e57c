package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPolicyDo(t *testing.T) {
	transient := Retryable(errors.New("503"))
	permanent := errors.New("404")

	tests := []struct {
		name      string
		errs      []error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{"success first try", []error{nil}, 3, 1, nil},
		{"success after retry", []error{transient, nil}, 3, 2, nil},
		{"exhausted", []error{transient, transient, transient}, 3, 3, transient},
		{"permanent stops", []error{permanent, nil}, 3, 1, permanent},
		{"zero attempts means one", []error{transient}, 0, 1, transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Policy{MaxAttempts: tt.attempts, BaseDelay: time.Millisecond, Multiplier: 2}
			calls := 0
			err := p.Do(context.Background(), func(attempt int) error {
				if attempt != calls+1 {
					t.Errorf("attempt = %d, want %d", attempt, calls+1)
				}
				e := tt.errs[calls]
				calls++
				return e
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, Multiplier: 3, MaxDelay: time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 300 * time.Millisecond},
		{3, 900 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestPolicyOnRetry(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Multiplier:  2,
		OnRetry: func(_ int, _ error, d time.Duration) {
			delays = append(delays, d)
		},
	}
	_ = p.Do(context.Background(), func(int) error { return Retryable(errors.New("x")) })

	if len(delays) != 2 || delays[0] != time.Millisecond || delays[1] != 2*time.Millisecond {
		t.Errorf("delays = %v", delays)
	}
}

func TestPolicyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, BaseDelay: time.Hour}

	calls := 0
	err := p.Do(ctx, func(int) error {
		calls++
		cancel()
		return Retryable(errors.New("flaky"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	wrapped := errors.Join(errors.New("ctx"), Retryable(errors.New("x")))
	if !IsRetryable(wrapped) {
		t.Error("IsRetryable should see through wrapping")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}
