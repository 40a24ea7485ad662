package api

import (
	"net/http"

	"invoice-system/internal/domain/auth"
)

// @Summary     Register a user
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request  body      auth.RegisterInput  true  "New user"
// @Success     201      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "missing field or email taken"
// @Failure     429      {object}  apperr.AppError  "rate limited"
// @Router      /api/register [post]
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    u,
	})
}

// @Summary     Log in
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request  body      auth.LoginInput  true  "Credentials"
// @Success     200      {object}  map[string]any
// @Failure     400      {object}  apperr.AppError  "missing field"
// @Failure     401      {object}  apperr.AppError  "invalid email or password"
// @Failure     403      {object}  apperr.AppError  "account inactive"
// @Router      /api/login [post]
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	token, u, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Login successful",
		"access_token": token,
		"user":         u,
	})
}

// @Summary     Current user
// @Tags        auth
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  map[string]any
// @Failure     401  {object}  apperr.AppError  "missing, invalid or expired token"
// @Failure     403  {object}  apperr.AppError  "account inactive"
// @Failure     404  {object}  apperr.AppError  "user not found"
// @Router      /api/current-user [get]
func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.authSvc.CurrentUser(r.Context(), token)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// @Summary     Log out
// @Description Tokens are stateless; the client discards its token.
// @Tags        auth
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  map[string]string
// @Router      /api/logout [post]
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := bearerToken(r)
	h.authSvc.Logout(r.Context(), token)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}
