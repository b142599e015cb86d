package controllers

import (
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

// Login exchanges admin credentials for a bearer token.
func (a *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}

	res, err := a.service.Login(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(res)
}

// Me returns the signed-in admin.
func (a *AuthController) Me(c *ctx.Context) {
	claims := c.Claims()
	if claims == nil {
		c.Unauthorized()
		return
	}

	user, err := a.service.Me(c.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(user)
}
