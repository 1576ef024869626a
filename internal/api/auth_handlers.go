package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rawatinap/billing-server/internal/models"
	"github.com/rawatinap/billing-server/internal/service"
)

func (h *Handler) LoginPage(c *gin.Context) {
	if CurrentSession(c).Authenticated() {
		h.redirect(c, "/dashboard")
		return
	}
	h.render(c, http.StatusOK, "login.html", nil)
}

func (h *Handler) Login(c *gin.Context) {
	if CurrentSession(c).Authenticated() {
		h.redirect(c, "/dashboard")
		return
	}

	var form models.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.logger.Debug().Err(err).Msg("malformed login form")
		h.flash(c, models.FlashError, service.ErrCredentialsRequired.Error())
		h.render(c, http.StatusOK, "login.html", nil)
		return
	}

	user, err := h.svc.Login(c.Request.Context(), form)
	var userErr service.UserError
	switch {
	case errors.As(err, &userErr):
		h.flash(c, models.FlashError, userErr.Error())
		h.render(c, http.StatusOK, "login.html", nil)
		return
	case err != nil:
		h.storeFailure(c, "login", err)
		h.render(c, http.StatusOK, "login.html", nil)
		return
	}

	if err := h.sessions.Login(c, user); err != nil {
		h.logger.Error().Err(err).Msg("failed to save session")
		h.render(c, http.StatusInternalServerError, "login.html", nil)
		return
	}

	h.flash(c, models.FlashSuccess, "Hello "+user.Username+"! Welcome back.")
	h.redirect(c, "/dashboard")
}

func (h *Handler) SignUpPage(c *gin.Context) {
	if CurrentSession(c).Authenticated() {
		h.redirect(c, "/dashboard")
		return
	}
	h.render(c, http.StatusOK, "signup.html", gin.H{"Username": "", "Email": ""})
}

func (h *Handler) SignUp(c *gin.Context) {
	if CurrentSession(c).Authenticated() {
		h.redirect(c, "/dashboard")
		return
	}

	var form models.SignUpForm
	if err := c.ShouldBind(&form); err != nil {
		h.logger.Debug().Err(err).Msg("malformed signup form")
		h.flash(c, models.FlashError, service.ErrSignupFieldsRequired.Error())
		h.render(c, http.StatusOK, "signup.html", gin.H{"Username": "", "Email": ""})
		return
	}

	_, err := h.svc.SignUp(c.Request.Context(), form)
	var userErr service.UserError
	switch {
	case errors.As(err, &userErr):
		h.flash(c, models.FlashError, userErr.Error())
		h.render(c, http.StatusOK, "signup.html", gin.H{"Username": form.Username, "Email": form.Email})
		return
	case err != nil:
		h.storeFailure(c, "signup", err)
		h.render(c, http.StatusOK, "signup.html", gin.H{"Username": form.Username, "Email": form.Email})
		return
	}

	h.flash(c, models.FlashSuccess, "Account created, please log in.")
	h.redirect(c, "/login")
}

func (h *Handler) Dashboard(c *gin.Context) {
	user, err := h.svc.CurrentUser(c.Request.Context(), CurrentSession(c).UserID)
	if err != nil {
		h.storeFailure(c, "dashboard", err)
		h.render(c, http.StatusInternalServerError, "dashboard.html", gin.H{"Username": CurrentSession(c).Username})
		return
	}
	if user == nil {
		// account removed after login
		if err := h.sessions.Clear(c); err != nil {
			h.logger.Error().Err(err).Msg("failed to clear session")
		}
		h.flash(c, models.FlashError, "please log in first")
		h.redirect(c, "/login")
		return
	}

	h.render(c, http.StatusOK, "dashboard.html", gin.H{
		"Username": user.Username,
		"Email":    user.Email,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Clear(c); err != nil {
		h.logger.Error().Err(err).Msg("failed to clear session")
	}
	h.flash(c, models.FlashSuccess, "Logged out. See you!")
	h.redirect(c, "/login")
}
