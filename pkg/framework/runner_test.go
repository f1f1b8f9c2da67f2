package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	var errs Errors
	require.NoError(t, errs.Err())

	failure := errors.New("port gone")
	errs = append(errs, &TaskError{Task: "usart", Err: failure})
	require.EqualError(t, errs.Err(), "usart: port gone")
	errs = append(errs, &TaskError{Task: "mqtt", Err: errors.New("broker gone")})
	require.EqualError(t, errs.Err(), "2 tasks failed\n\tusart: port gone\n\tmqtt: broker gone")

	require.True(t, errors.Is(errs.Err(), failure))
	var taskErr *TaskError
	require.True(t, errors.As(errs.Err(), &taskErr))
	require.Equal(t, "usart", taskErr.Task)
}

func TestRunnerStopsAllOnFirstExit(t *testing.T) {
	failure := errors.New("failed")
	r := NewRunner()
	r.Go(
		NamedRun("blocking", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
		RunFunc(func(ctx context.Context) error {
			return failure
		}),
	)
	done := make(chan error, 1)
	go func() { done <- r.Wait() }()
	select {
	case err := <-done:
		require.EqualError(t, err, "1: failed")
		require.True(t, errors.Is(err, failure))
	case <-time.After(time.Second):
		t.Fatal("runner didn't stop")
	}
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner()
	r.Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	r.Stop()
	require.NoError(t, r.Wait())
}

func TestNamedRun(t *testing.T) {
	n := NamedRun("x", RunFunc(func(context.Context) error { return nil }))
	require.Equal(t, "x", n.(Named).Name())
	require.NoError(t, n.Run(context.Background()))
}
