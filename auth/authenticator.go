package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garagehub/dispatch/errors"
	"github.com/garagehub/dispatch/eventlog"
	"github.com/garagehub/dispatch/identity"
	"github.com/garagehub/dispatch/log"
	"github.com/golang-jwt/jwt"
	pkgerrors "github.com/pkg/errors"
)

const (
	DefaultStandardValidity = 24 * time.Hour
	DefaultShortValidity    = 10 * time.Minute

	// SchemeBearer is the authorization scheme of the tokens
	SchemeBearer = "Bearer"

	eventTokenIssued   = "token_issued"
	eventTokenRejected = "token_rejected"
)

var signingMethod = jwt.SigningMethodHS256

// Props are the properties used to create an Authenticator
type Props struct {
	// Secret is the symmetric key used to sign and verify tokens
	Secret []byte

	// Issuer is set as the iss claim of issued tokens and required
	// from verified tokens
	Issuer string

	// Store resolves the identity a token claims
	Store identity.Store

	Logger log.Logger

	// Recorder records token events. Defaults to eventlog.Discard
	Recorder eventlog.Recorder

	// Clock returns the current time. Defaults to time.Now
	Clock func() time.Time

	StandardValidity time.Duration
	ShortValidity    time.Duration
}

// Authenticator issues and verifies bearer tokens and provides the
// stage that resolves the principal of a request
type Authenticator struct {
	secret           []byte
	issuer           string
	store            identity.Store
	logger           log.Logger
	recorder         eventlog.Recorder
	clock            func() time.Time
	standardValidity time.Duration
	shortValidity    time.Duration
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(props Props) *Authenticator {
	if len(props.Secret) == 0 {
		panic("secret must be set")
	}

	if len(props.Issuer) == 0 {
		panic("issuer must be set")
	}

	if props.Store == nil {
		panic("store must be set")
	}

	if props.Logger == nil {
		panic("logger must be set")
	}

	logger := props.Logger.ForClass("auth", "Authenticator")

	recorder := props.Recorder
	if recorder == nil {
		recorder = eventlog.Discard
	}

	clock := props.Clock
	if clock == nil {
		clock = time.Now
	}

	standardValidity := props.StandardValidity
	if standardValidity == 0 {
		standardValidity = DefaultStandardValidity
	}

	shortValidity := props.ShortValidity
	if shortValidity == 0 {
		shortValidity = DefaultShortValidity
	}

	return &Authenticator{
		secret:           props.Secret,
		issuer:           props.Issuer,
		store:            props.Store,
		logger:           logger,
		recorder:         eventlog.Safe(recorder, logger),
		clock:            clock,
		standardValidity: standardValidity,
		shortValidity:    shortValidity,
	}
}

// IssueProps are the contents of a new token
type IssueProps struct {
	ID             *int64
	Kind           identity.Kind
	Username       string
	Authorisations []string
	Validity       time.Duration
}

// Issue signs a new token valid from now for props.Validity
func (a *Authenticator) Issue(ctx context.Context, props IssueProps) (string, error) {
	if props.Validity <= 0 {
		return "", errors.NewWithReason(errors.ErrIssueToken, "token validity must be positive")
	}

	authorisations := props.Authorisations
	if authorisations == nil {
		authorisations = []string{}
	}

	now := a.clock()
	claims := Claims{
		ID:             props.ID,
		UserType:       string(props.Kind),
		Username:       props.Username,
		Authorisations: authorisations,
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			IssuedAt:  now.Unix(),
			NotBefore: now.Unix(),
			ExpiresAt: now.Add(props.Validity).Unix(),
		},
	}

	token, err := jwt.NewWithClaims(signingMethod, &claims).SignedString(a.secret)
	if err != nil {
		return "", errors.New(errors.ErrIssueToken, pkgerrors.Wrap(err, "failed to sign token"))
	}

	_ = a.recorder.Record(ctx, eventlog.NewEvent(ctx, eventTokenIssued, eventlog.SeverityInfo,
		fmt.Sprintf("token issued for %s %s", props.Kind, props.Username)))
	return token, nil
}

// StandardAuthToken issues a token for an identity with all of its
// authorisations
func (a *Authenticator) StandardAuthToken(ctx context.Context, id *identity.Identity) (string, error) {
	identityID := id.ID
	return a.Issue(ctx, IssueProps{
		ID:             &identityID,
		Kind:           id.Kind,
		Username:       id.Name,
		Authorisations: id.Authorisations,
		Validity:       a.standardValidity,
	})
}

// ShortAuthToken issues a short lived token that is not bound to an
// identity id and grants the purposes only. It is meant for single
// purpose flows such as a password reset
func (a *Authenticator) ShortAuthToken(ctx context.Context, kind identity.Kind, username string, purposes ...string) (string, error) {
	return a.Issue(ctx, IssueProps{
		Kind:           kind,
		Username:       username,
		Authorisations: purposes,
		Validity:       a.shortValidity,
	})
}

// Verify verifies the signature and the time window of a token and
// returns its claims. Every failure is an ErrAuthenticationInvalid with
// the reason of the failure
func (a *Authenticator) Verify(raw string) (*Claims, error) {
	parser := jwt.Parser{
		ValidMethods:         []string{signingMethod.Alg()},
		SkipClaimsValidation: true,
	}

	var claims Claims
	_, err := parser.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, errors.NewWithReason(errors.ErrAuthenticationInvalid, parseFailureReason(err))
	}

	if err := claims.validateShape(a.issuer); err != nil {
		return nil, errors.NewWithReason(errors.ErrAuthenticationInvalid, err.Error())
	}

	if err := claims.validateTime(a.clock().Unix()); err != nil {
		return nil, errors.NewWithReason(errors.ErrAuthenticationInvalid, err.Error())
	}

	return &claims, nil
}

func parseFailureReason(err error) string {
	var verr *jwt.ValidationError
	if !pkgerrors.As(err, &verr) {
		return "malformed token"
	}

	switch {
	case verr.Errors&jwt.ValidationErrorSignatureInvalid != 0:
		return "bad signature"
	case verr.Errors&jwt.ValidationErrorMalformed != 0:
		return "malformed token"
	case verr.Errors&jwt.ValidationErrorUnverifiable != 0:
		return "unverifiable token"
	default:
		return "malformed token"
	}
}

func (a *Authenticator) reject(ctx context.Context, err errors.Error) error {
	a.logger.Debug(ctx, "token rejected", log.MapFields{
		"call_type": "AuthenticateFailure",
	}, err)

	_ = a.recorder.Record(ctx, eventlog.NewEvent(ctx, eventTokenRejected, eventlog.SeverityWarn, err.Reason))
	return err
}

// Authenticate resolves the principal for the value of an
// Authorization header. ok is false when the request has no
// Authorization header, in which case the principal is anonymous
func (a *Authenticator) Authenticate(ctx context.Context, scheme, value string, ok bool) (*Principal, error) {
	if !ok {
		return Anonymous(), nil
	}

	if !strings.EqualFold(scheme, SchemeBearer) {
		return nil, a.reject(ctx, errors.NewWithReason(errors.ErrAuthenticationInvalid,
			fmt.Sprintf("unsupported authorization scheme %s", scheme)))
	}

	if len(value) == 0 {
		return nil, a.reject(ctx, errors.NewWithReason(errors.ErrAuthenticationInvalid, "missing token"))
	}

	claims, err := a.Verify(value)
	if err != nil {
		return nil, a.reject(ctx, errors.Classify(err))
	}

	p := &Principal{Authorisations: NewSet(claims.Authorisations...), Claims: claims}
	if claims.ID == nil {
		return p, nil
	}

	id, err := a.store.Find(ctx, claims.Kind(), *claims.ID)
	if err != nil {
		return nil, err
	}

	if id == nil {
		return nil, a.reject(ctx, errors.NewWithReason(errors.ErrAuthenticationInvalid,
			fmt.Sprintf("%s %d no longer exists", claims.UserType, *claims.ID)))
	}

	p.Identity = id
	return p, nil
}
