package password

import (
	"fmt"
	"net/http"

	"github.com/garagehub/dispatch/api"
	"github.com/garagehub/dispatch/auth"
	callback "github.com/garagehub/dispatch/callback/client"
	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/identity"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
	"github.com/garagehub/dispatch/rpc"
)

const (
	// PurposePasswordReset is granted by the tokens delivered to reset
	// a password
	PurposePasswordReset = "password-reset"

	// PurposeGeneral is granted to every signed in identity
	PurposeGeneral = "general"
)

type Services struct {
	Logger        log.Logger
	Store         identity.Store
	Authenticator *auth.Authenticator
	Callbacks     callback.Calls
}

// PasswordHandler serves the password reset flow. A reset is requested
// anonymously and completed with the short lived token delivered to the
// identity through the password reset callback
type PasswordHandler struct {
	logger        log.Logger
	store         identity.Store
	authenticator *auth.Authenticator
	callbacks     callback.Calls
}

func NewPasswordHandler(services Services) PasswordHandler {
	if services.Logger == nil {
		panic("Logger must be provided as a service")
	}
	if services.Store == nil {
		panic("Store must be provided as a service")
	}
	if services.Authenticator == nil {
		panic("Authenticator must be provided as a service")
	}
	if services.Callbacks == nil {
		panic("Callbacks must be provided as a service")
	}

	return PasswordHandler{
		logger:        services.Logger.ForClass("password", "handler"),
		store:         services.Store,
		authenticator: services.Authenticator,
		callbacks:     services.Callbacks,
	}
}

// RequestReset issues a password reset token for the identity in the
// form fields usertype and username and hands it to the callback. The
// response is 202 whether or not the identity exists
func (h PasswordHandler) RequestReset(req *request.Request, in pipeline.Values) (interface{}, error) {
	params, err := api.PrivateParams(req, api.ParamUserType, api.ParamUsername)
	if err != nil {
		return nil, err
	}

	kind, err := identity.ParseKind(params[api.ParamUserType])
	if err != nil {
		return nil, errors.NewWithReason(errors.ErrMalformedInput, err.Error())
	}

	req.SetStatus(http.StatusAccepted)

	ctx := req.Context()
	id, err := h.store.FindByPrincipalName(ctx, kind, params[api.ParamUsername])
	if err != nil {
		return nil, err
	}

	if id == nil {
		h.logger.Debug(ctx, "password reset requested for unknown identity", log.MapFields{
			"call_type": "RequestResetUnknownIdentity",
			"usertype":  string(kind),
		})
		return nil, nil
	}

	token, err := h.authenticator.ShortAuthToken(ctx, id.Kind, id.Name, PurposePasswordReset)
	if err != nil {
		return nil, err
	}

	claims, err := h.authenticator.Verify(token)
	if err != nil {
		return nil, errors.New(errors.ErrIssueToken, err)
	}

	h.callbacks.PasswordResetRequested(ctx, callback.PasswordResetRequestedBody{
		UserType:  string(id.Kind),
		Username:  id.Name,
		Token:     token,
		ExpiresAt: claims.ExpiresAt,
	})

	return nil, nil
}

// resolve returns the identity the principal acts for. Reset tokens
// are not bound to an identity id, so their identity is resolved by
// principal name
func (h PasswordHandler) resolve(req *request.Request, p *auth.Principal) (*identity.Identity, error) {
	if p.Identity != nil {
		return p.Identity, nil
	}

	kind, err := identity.ParseKind(p.Claims.UserType)
	if err != nil {
		return nil, errors.NewWithReason(errors.ErrAuthenticationInvalid, err.Error())
	}

	id, err := h.store.FindByPrincipalName(req.Context(), kind, p.Claims.Username)
	if err != nil {
		return nil, err
	}

	if id == nil {
		return nil, errors.NewWithReason(errors.ErrAuthenticationInvalid,
			fmt.Sprintf("%s %s no longer exists", kind, p.Claims.Username))
	}

	return id, nil
}

// ResetPassword replaces the password of the identity the principal
// acts for with the form field password
func (h PasswordHandler) ResetPassword(req *request.Request, in pipeline.Values) (interface{}, error) {
	p, err := auth.PrincipalOf(in)
	if err != nil {
		return nil, err
	}

	params, err := api.PrivateParams(req, api.ParamPassword)
	if err != nil {
		return nil, err
	}

	id, err := h.resolve(req, p)
	if err != nil {
		return nil, err
	}

	hash, err := identity.HashPassword(params[api.ParamPassword])
	if err != nil {
		return nil, err
	}

	if err := h.store.UpdatePassword(req.Context(), id.Kind, id.ID, hash); err != nil {
		return nil, err
	}

	h.logger.Info(req.Context(), "password reset", log.MapFields{
		"call_type": "ResetPasswordSuccess",
	}, id)

	return nil, nil
}

func fail(code errors.ErrorCode, reason string) pipeline.Stage {
	return pipeline.StageFunc(func(*request.Request, pipeline.Values) (pipeline.Values, error) {
		return nil, errors.NewWithReason(code, reason)
	})
}

func BindHandler(services Services, binder rpc.ResourceBinder) {
	handler := NewPasswordHandler(services)
	respond := negotiate.Stage(api.NewSelector(negotiate.First))

	binder.Register("/api/password-reset", rpc.MethodPipelines{
		request.MethodPost: pipeline.Pipe(
			pipeline.Map(handler.RequestReset),
			respond,
		),
		request.MethodPut: pipeline.Pipe(
			services.Authenticator.Auth(),
			pipeline.Dispatch(pipeline.Table{
				auth.StateAuthorised: pipeline.Pipe(
					auth.RequireAuthorisation(PurposePasswordReset, PurposeGeneral),
					pipeline.Map(handler.ResetPassword),
				),
				auth.StateAuthenticated: fail(errors.ErrAuthorizationDenied,
					"password reset requires an authorised token"),
				auth.StateAnonymous: fail(errors.ErrAuthenticationRequired,
					"password reset requires a token"),
			}, auth.StateKey),
			respond,
		),
	})
}
