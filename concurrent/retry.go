package concurrent

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// ErrCannotRecover is an error that can be passed by clients to
// retry mechanisms so that the attempted action is not retried
type ErrCannotRecover struct {
	Cause error
}

// Error implementation of error for ErrCannotRecover
func (e ErrCannotRecover) Error() string {
	return e.Cause.Error()
}

// Unwrap returns the cause
func (e ErrCannotRecover) Unwrap() error {
	return e.Cause
}

// ErrMaxAttemptsReached is an error that is returned after attempting
// an action multiple times with failures
type ErrMaxAttemptsReached struct {
	Causes []error
}

// Error implementation of error for ErrMaxAttemptsReached
func (e ErrMaxAttemptsReached) Error() string {
	return fmt.Sprintf("maximum number of attempts %d reached", len(e.Causes))
}

// Last returns the error of the last attempt
func (e ErrMaxAttemptsReached) Last() error {
	if len(e.Causes) == 0 {
		return nil
	}

	return e.Causes[len(e.Causes)-1]
}

const (
	defaultBaseTimeout     time.Duration = 100 * time.Millisecond
	defaultBaseExp         uint8         = 2
	defaultMaxRetryTimeout time.Duration = 10 * time.Second
	defaultAttempts        uint8         = 10
)

// DefaultConfig is the RetryConfig used by Retry
var DefaultConfig = RetryConfig{
	BaseTimeout:     defaultBaseTimeout,
	BaseExp:         defaultBaseExp,
	MaxRetryTimeout: defaultMaxRetryTimeout,
	Attempts:        defaultAttempts,
}

// Supplier is an interface for a type that provides a value. It
// abstracts any operation so that it can be run by Retry without
// knowing any specifics of what the Supplier actually does
type Supplier interface {
	// Supply executes the operation the supplier is expected to perform
	// and returns the value and error related with the operation
	Supply() (interface{}, error)
}

// SupplierFunc allows functions and closures to be passed as a Supplier
type SupplierFunc func() (interface{}, error)

// Supply is the implementation of Supplier by calling the method
// itself
func (s SupplierFunc) Supply() (interface{}, error) {
	return s()
}

// RetryConfig is the configuration parameters for the Retry
// concurrent utility. Look at RetryWithConfig for more information
type RetryConfig struct {
	// Random sets the retry to wait a random time based on the
	// exponential back off
	Random bool

	// UnlimitedAttempts when set to true, Attempts will be ignored
	// and the action will be retried until it succeeds or the context
	// stops
	UnlimitedAttempts bool

	// Attempts is the maximum number of attempts allowed by a
	// Retry operation
	Attempts uint8

	// BaseExp is the base exponent for the calculation of the next
	// time an attempt must be triggered using exponential backoff
	BaseExp uint8

	// BaseTimeout is the initial timeout used after the first
	// attempt fails
	BaseTimeout time.Duration

	// MaxRetryTimeout sets an upper bound into the time that
	// the retry will wait until attempting an operation again.
	MaxRetryTimeout time.Duration
}

// nextTimeout computes the back off after a failed attempt
func (c RetryConfig) nextTimeout(timeout int64) int64 {
	timeout = timeout * int64(c.BaseExp)
	multiplier := rand.Float64() + 0.5

	if max := c.MaxRetryTimeout.Nanoseconds(); timeout > max {
		timeout = max
		multiplier = rand.Float64() + 1
	}

	if c.Random {
		timeout = int64(multiplier*float64(timeout)) + 1
	}

	return timeout
}

// RetryWithConfig is an implementation of an exponential back off
// retry operation for a supplier. It keeps retrying the operation
// until the maximum number of attempts has been reached, in which
// case it returns ErrMaxAttemptsReached, or until it succeeds.
// A supplier that returns ErrCannotRecover is not attempted again
// and its cause is returned
func RetryWithConfig(
	ctx context.Context,
	supplier Supplier,
	config RetryConfig,
) (interface{}, error) {
	var errs []error
	timeout := config.BaseTimeout.Nanoseconds()
	maxAttempts := int(config.Attempts)
	if config.UnlimitedAttempts {
		maxAttempts = -1
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempts := 1; ; attempts++ {
		select {
		case <-ctx.Done():
			return nil, errors.WithStack(ctx.Err())

		case <-timer.C:
			v, err := supplier.Supply()
			if err == nil {
				return v, nil
			}

			var cannotRecover ErrCannotRecover
			if errors.As(err, &cannotRecover) {
				return nil, cannotRecover.Cause
			}

			errs = append(errs, err)
		}

		if maxAttempts >= 0 && attempts >= maxAttempts {
			return nil, ErrMaxAttemptsReached{Causes: errs}
		}

		timeout = config.nextTimeout(timeout)
		timer.Reset(time.Duration(timeout))
	}
}

// Retry is the same operation as RetryWithConfig but in this
// case DefaultConfig is used
func Retry(ctx context.Context, supplier Supplier) (interface{}, error) {
	return RetryWithConfig(ctx, supplier, DefaultConfig)
}
