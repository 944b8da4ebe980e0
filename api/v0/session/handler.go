package session

import (
	"fmt"
	"net/http"

	"github.com/garagehub/dispatch/api"
	"github.com/garagehub/dispatch/auth"
	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/identity"
	"github.com/garagehub/dispatch/log"
	"github.com/garagehub/dispatch/negotiate"
	"github.com/garagehub/dispatch/pipeline"
	"github.com/garagehub/dispatch/request"
	"github.com/garagehub/dispatch/rpc"
)

type Services struct {
	Logger        log.Logger
	Store         identity.Store
	Authenticator *auth.Authenticator
}

// SessionHandler signs identities in and describes the principal of
// authenticated requests
type SessionHandler struct {
	logger        log.Logger
	store         identity.Store
	authenticator *auth.Authenticator
}

func NewSessionHandler(services Services) SessionHandler {
	if services.Logger == nil {
		panic("Logger must be provided as a service")
	}
	if services.Store == nil {
		panic("Store must be provided as a service")
	}
	if services.Authenticator == nil {
		panic("Authenticator must be provided as a service")
	}

	return SessionHandler{
		logger:        services.Logger.ForClass("session", "handler"),
		store:         services.Store,
		authenticator: services.Authenticator,
	}
}

// CreateSession checks the credentials in the form fields usertype,
// username and password and issues a standard token for the identity.
// Unknown users and wrong passwords fail the same way
func (h SessionHandler) CreateSession(req *request.Request, in pipeline.Values) (interface{}, error) {
	params, err := api.PrivateParams(req, api.ParamUserType, api.ParamUsername, api.ParamPassword)
	if err != nil {
		return nil, err
	}

	kind, err := identity.ParseKind(params[api.ParamUserType])
	if err != nil {
		return nil, errors.NewWithReason(errors.ErrMalformedInput, err.Error())
	}

	ctx := req.Context()
	id, err := h.store.FindByPrincipalName(ctx, kind, params[api.ParamUsername])
	if err != nil {
		return nil, err
	}

	if id == nil || !identity.CheckPassword(id.PasswordHash, params[api.ParamPassword]) {
		h.logger.Debug(ctx, "sign in rejected", log.MapFields{
			"call_type": "CreateSessionFailure",
			"usertype":  string(kind),
		})
		return nil, errors.NewWithReason(errors.ErrInvalidCredentials,
			fmt.Sprintf("credentials for %s %s do not match", kind, params[api.ParamUsername]))
	}

	token, err := h.authenticator.StandardAuthToken(ctx, id)
	if err != nil {
		return nil, err
	}

	req.SetStatus(http.StatusCreated)
	return CreateSessionResponse{Token: token, TokenType: auth.SchemeBearer}, nil
}

// GetSession describes the principal resolved for the request
func (h SessionHandler) GetSession(req *request.Request, in pipeline.Values) (interface{}, error) {
	p, err := auth.PrincipalOf(in)
	if err != nil {
		return nil, err
	}

	return GetSessionResponse{
		ID:             p.Identity.ID,
		UserType:       string(p.Identity.Kind),
		Username:       p.Identity.Name,
		Authorisations: p.Authorisations.Slice(),
	}, nil
}

func BindHandler(services Services, binder rpc.ResourceBinder) {
	handler := NewSessionHandler(services)
	respond := negotiate.Stage(api.NewSelector(negotiate.First))

	binder.Register("/api/session", rpc.MethodPipelines{
		request.MethodPost: pipeline.Pipe(
			pipeline.Map(handler.CreateSession),
			respond,
		),
		request.MethodGet: pipeline.Pipe(
			services.Authenticator.Auth(),
			auth.RequireAuthentication(),
			pipeline.Map(handler.GetSession),
			respond,
		),
	})
}
