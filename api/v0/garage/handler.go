package garage

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

const (
	// PurposeConsultant grants access to every garage
	PurposeConsultant = "consultant"

	// PurposeGeneral is granted to every signed in identity
	PurposeGeneral = "general"
)

type Services struct {
	Logger        log.Logger
	Store         identity.Store
	Authenticator *auth.Authenticator
}

// GarageHandler serves the garage profiles
type GarageHandler struct {
	logger log.Logger
	store  identity.Store
}

func NewGarageHandler(services Services) GarageHandler {
	if services.Logger == nil {
		panic("Logger must be provided as a service")
	}
	if services.Store == nil {
		panic("Store must be provided as a service")
	}

	return GarageHandler{
		logger: services.Logger.ForClass("garage", "handler"),
		store:  services.Store,
	}
}

// GetGarage returns the profile of the garage in the endpoint
func (h GarageHandler) GetGarage(req *request.Request, in pipeline.Values) (interface{}, error) {
	id, ok := req.EndpointInt("id")
	if !ok {
		return nil, errors.NewWithReason(errors.ErrInternalError, "garage id not captured by endpoint scheme")
	}

	garage, err := h.store.Find(req.Context(), identity.KindGarage, id)
	if err != nil {
		return nil, err
	}

	if garage == nil {
		return nil, errors.NewWithReason(errors.ErrNotFound, fmt.Sprintf("garage %d does not exist", id))
	}

	return GarageResponse{ID: garage.ID, Username: garage.Name}, nil
}

// CreateGarage registers a new garage out of the decoded request body
func (h GarageHandler) CreateGarage(req *request.Request, in pipeline.Values) (interface{}, error) {
	body, ok := in.At(len(in) - 1).(*CreateGarageRequest)
	if !ok {
		return nil, errors.NewWithReason(errors.ErrInternalError, "create garage request not decoded")
	}

	if len(body.Username) == 0 {
		return nil, errors.NewWithReason(errors.ErrMissingParam, "username is required")
	}

	if len(body.Password) == 0 {
		return nil, errors.NewWithReason(errors.ErrMissingParam, "password is required")
	}

	hash, err := identity.HashPassword(body.Password)
	if err != nil {
		return nil, err
	}

	garage, err := h.store.Create(req.Context(), identity.CreateProps{
		Kind:           identity.KindGarage,
		Name:           body.Username,
		PasswordHash:   hash,
		Authorisations: []string{PurposeGeneral},
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info(req.Context(), "garage created", log.MapFields{
		"call_type": "CreateGarageSuccess",
	}, garage)

	req.SetStatus(http.StatusCreated)
	return GarageResponse{ID: garage.ID, Username: garage.Name}, nil
}

func BindHandler(services Services, binder rpc.ResourceBinder) {
	if services.Authenticator == nil {
		panic("Authenticator must be provided as a service")
	}

	handler := NewGarageHandler(services)
	respond := negotiate.Stage(api.NewSelector(negotiate.First))

	binder.Register("/api/garages/:id<int>", rpc.MethodPipelines{
		request.MethodGet: pipeline.Pipe(
			services.Authenticator.Auth(),
			pipeline.FirstOf(
				errors.NewWithReason(errors.ErrAuthorizationDenied, "requires a consultant or the garage itself"),
				auth.RequireAuthorisation(PurposeConsultant),
				auth.RequireAuthentication(auth.ExpectEndpointParam(identity.KindGarage, "id")),
			),
			pipeline.Map(handler.GetGarage),
			respond,
		),
	})

	binder.Register("/api/garages", rpc.MethodPipelines{
		request.MethodPost: pipeline.Pipe(
			services.Authenticator.Auth(),
			auth.RequireAuthorisation(PurposeGeneral),
			auth.RequireAuthorisation(PurposeConsultant),
			rpc.DecodeJson(func() interface{} { return &CreateGarageRequest{} }),
			pipeline.Map(handler.CreateGarage),
			respond,
		),
	})
}
