package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"webmvc/internal/app/repository"
	"webmvc/internal/component"
	"webmvc/internal/mvc"
)

// RegisterView is the sign-up page, shown again when an account is taken.
const RegisterView = "/register.html"

func init() {
	component.MustRegister(NewRegisterController(repository.Users()))
}

// RegisterForm is the body of a sign-up request.
type RegisterForm struct {
	Account  string `param:"account" json:"account" validate:"required,max=32"`
	Password string `param:"password" json:"password" validate:"required,min=4"`
	Email    string `param:"email" json:"email" validate:"omitempty,email"`
}

// RegisterController creates accounts.
type RegisterController struct {
	mvc.Controller `path:"/register"`
	_              mvc.RequestMapping `method:"POST" path:"/" handler:"Register"`

	users *repository.UserRepository
}

// NewRegisterController creates a RegisterController backed by users.
func NewRegisterController(users *repository.UserRepository) *RegisterController {
	return &RegisterController{users: users}
}

// Register saves the account and redirects home.
func (c *RegisterController) Register(ctx context.Context, form *RegisterForm) (*mvc.ModelAndView, error) {
	user, err := c.users.Save(form.Account, form.Password, form.Email)
	if errors.Is(err, repository.ErrDuplicateAccount) {
		return mvc.NewModelAndView(RegisterView).
			WithStatus(http.StatusConflict).
			AddObject("error", "account already exists").
			AddObject("account", form.Account), nil
	}
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user registered",
		slog.String("account", user.Account),
		slog.Int64("user_id", user.ID))
	return mvc.RedirectTo("/"), nil
}
