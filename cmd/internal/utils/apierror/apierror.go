package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the caller-visible shape of every failure. It doubles as
// an error so services can return it through transaction closures.
type ErrorResponse interface {
	error
	Code() int
}

type apiError struct {
	status  int
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return e.Message
}

func (e *apiError) Code() int {
	return e.status
}

// Generic
var (
	InternalServerError   = NewSimple(http.StatusInternalServerError, "Something went wrong on our side")
	NotFoundError         = NewSimple(http.StatusNotFound, "Resource not found")
	MalformedBodyError    = NewSimple(http.StatusBadRequest, "Could not understand request body")
	InvalidAuthTokenError = NewSimple(http.StatusUnauthorized, "Missing or invalid authorization token")
)

// Slots
var (
	SlotNotFoundError     = NewSimple(http.StatusNotFound, "Event not found")
	SlotNotOwnedError     = NewSimple(http.StatusForbidden, "You do not own this event")
	SlotLockedError       = NewSimple(http.StatusBadRequest, "Event has a pending swap request and cannot be modified")
	EndBeforeStartError   = NewSimple(http.StatusBadRequest, "end_time must be after start_time")
	StatusNotOwnerSetable = NewSimple(http.StatusBadRequest, "Status can only be set to OCCUPIED or EXCHANGEABLE")
)

// Swaps
var (
	MySlotNotFoundError            = NewSimple(http.StatusNotFound, "Your slot not found")
	TargetSlotNotFoundError        = NewSimple(http.StatusNotFound, "Target slot not found")
	MySlotNotExchangeableError     = NewSimple(http.StatusBadRequest, "Your slot must be EXCHANGEABLE to create a swap request")
	TargetSlotNotExchangeableError = NewSimple(http.StatusBadRequest, "Target slot must be EXCHANGEABLE")
	SelfSwapError                  = NewSimple(http.StatusBadRequest, "Cannot swap with your own slot")
	SwapRequestNotFoundError       = NewSimple(http.StatusNotFound, "Swap request not found")
	SwapNotTargetUserError         = NewSimple(http.StatusForbidden, "You are not authorized to respond to this swap request")
)

// Users / identity provider
var (
	UserAlreadyExistsError      = NewSimple(http.StatusConflict, "A user with this email already exists")
	UserAlreadyConfirmedError   = NewSimple(http.StatusConflict, "User is already confirmed")
	IDPUserNotFoundError        = NewSimple(http.StatusNotFound, "No account found for this email")
	IDPInvalidPasswordError     = NewSimple(http.StatusBadRequest, "Password does not meet the security policy")
	IDPExistingEmailError       = NewSimple(http.StatusConflict, "This email is already registered")
	IDPUserNotConfirmedError    = NewSimple(http.StatusForbidden, "Account email is not confirmed yet")
	IDPCredentialsMismatchError = NewSimple(http.StatusUnauthorized, "Incorrect email or password")
	IDPConfirmCodeMismatchError = NewSimple(http.StatusBadRequest, "Confirmation code does not match")
	IDPConfirmCodeExpiredError  = NewSimple(http.StatusBadRequest, "Confirmation code has expired")
)

func NewSimple(status int, message string) ErrorResponse {
	return &apiError{status: status, Message: message}
}

func NewMissingParamError(name string) ErrorResponse {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Missing required parameter '%s'", name))
}

func NewInvalidParamTypeError(name, expected string) ErrorResponse {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Parameter '%s' must be of type %s", name, expected))
}

// NewSwapAlreadyResolvedError reports a respond call against a request that
// already left the PENDING state.
func NewSwapAlreadyResolvedError(status string) ErrorResponse {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Swap request is already %s", status))
}

// FromValidationError turns a validator failure into a 400 naming the first
// offending field.
func FromValidationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return NewSimple(http.StatusBadRequest, fmt.Sprintf("Field '%s' failed on '%s' validation", first.Field(), first.Tag()))
	}
	return MalformedBodyError
}

// As extracts an ErrorResponse from an error chain, typically after a
// transaction helper wrapped or forwarded it.
func As(err error) (ErrorResponse, bool) {
	var resp ErrorResponse
	if errors.As(err, &resp) {
		return resp, true
	}
	return nil, false
}
