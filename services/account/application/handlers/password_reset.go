package handlers

import (
	"net/http"

	"github.com/ghuser/storefront/pkg/errhttp"
	"github.com/ghuser/storefront/pkg/httpx"
	pkgvalidator "github.com/ghuser/storefront/pkg/validator"
	appsvcs "github.com/ghuser/storefront/services/account/application/services"
)

// PasswordResetRequest is the request body for POST /account/password-reset.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,max=254" example:"user@example.com"`
} // @name PasswordResetRequest

// PasswordResetConfirmRequest is the request body for POST /account/password-reset/confirm.
type PasswordResetConfirmRequest struct {
	Token           string `json:"token"            validate:"required,hexadecimal,max=128" example:"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b"`
	Password        string `json:"password"         validate:"required"                     example:"correct horse battery"`
	ConfirmPassword string `json:"confirm_password" validate:"required"                     example:"correct horse battery"`
} // @name PasswordResetConfirmRequest

// AckResponse is the generic success body of the reset flow.
type AckResponse struct {
	Message string `json:"message" example:"If an account exists for that email, a reset link has been sent."`
} // @name AckResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"reset link has expired"`
} // @name ErrorResponse

// PasswordResetHandler handles the two steps of the password reset flow.
type PasswordResetHandler struct {
	svc *appsvcs.Services
}

// NewPasswordResetHandler returns a PasswordResetHandler backed by the given services.
func NewPasswordResetHandler(svc *appsvcs.Services) *PasswordResetHandler {
	return &PasswordResetHandler{svc: svc}
}

// Request emails a reset link if the address belongs to an account.
//
//	@Summary		Request password reset
//	@Description	Always answers with the same message, whether or not the email is known
//	@Tags			account
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PasswordResetRequest	true	"Account email"
//	@Success		202		{object}	AckResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/account/password-reset [post]
func (h *PasswordResetHandler) Request(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[PasswordResetRequest](w, r)
	if !ok {
		return
	}

	ack, err := h.svc.PasswordReset.RequestReset(r.Context(), req.Email)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusAccepted, AckResponse{Message: ack.Message})
}

// Confirm consumes a reset token and sets the new password.
//
//	@Summary		Confirm password reset
//	@Tags			account
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PasswordResetConfirmRequest	true	"Token and new password"
//	@Success		200		{object}	AckResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/account/password-reset/confirm [post]
func (h *PasswordResetHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[PasswordResetConfirmRequest](w, r)
	if !ok {
		return
	}

	ack, err := h.svc.PasswordReset.ResetPassword(r.Context(), req.Token, req.Password, req.ConfirmPassword)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, AckResponse{Message: ack.Message})
}
