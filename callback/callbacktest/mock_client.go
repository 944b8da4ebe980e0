package callbacktest

import (
	"context"

	callback "github.com/garagehub/dispatch/callback/client"
	"github.com/stretchr/testify/mock"
)

// MockClient records the callbacks triggered by handlers
type MockClient struct {
	mock.Mock
}

func (c *MockClient) PasswordResetRequested(
	ctx context.Context,
	body callback.PasswordResetRequestedBody,
) {
	_ = c.Called(ctx, body)
}

// ExpectPasswordResetRequested expects a single PasswordResetRequested
// and stores its body in delivered
func (c *MockClient) ExpectPasswordResetRequested(delivered *callback.PasswordResetRequestedBody) *mock.Call {
	return c.On("PasswordResetRequested", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*delivered = args.Get(1).(callback.PasswordResetRequestedBody)
		}).Once()
}
