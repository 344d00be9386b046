package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"webmvc/internal/app/repository"
	"webmvc/internal/component"
	apierrors "webmvc/internal/errors"
	"webmvc/internal/mvc"
)

// UserView renders a single user.
const UserView = "/user.html"

// UserNotFoundView is forwarded to for an unknown user id.
const UserNotFoundView = "/404.html"

func init() {
	component.MustRegister(NewUserController(repository.Users()))
}

// UserPath is bound from the {id} template of the user routes.
type UserPath struct {
	ID int64 `param:"id" validate:"gt=0"`
}

// UserController serves the user directory.
type UserController struct {
	mvc.Controller `path:"/users"`
	_              mvc.RequestMapping `method:"GET" path:"/" handler:"List"`
	_              mvc.RequestMapping `method:"GET" path:"/{id}" handler:"Show"`
	_              mvc.RequestMapping `method:"GET" path:"/{id}/json" handler:"ShowJSON"`
	_              mvc.RequestMapping `method:"POST" path:"/" handler:"Create"`

	users *repository.UserRepository
}

// NewUserController creates a UserController backed by users.
func NewUserController(users *repository.UserRepository) *UserController {
	return &UserController{users: users}
}

// List renders /users.html with the "userList" attribute.
func (c *UserController) List() []*repository.User {
	return c.users.FindAll()
}

// Show renders one user.
func (c *UserController) Show(p *UserPath) *mvc.ModelAndView {
	user, ok := c.users.FindByID(p.ID)
	if !ok {
		return notFound(p.ID)
	}
	return mvc.NewModelAndView(UserView).AddObject("user", user)
}

// ShowJSON renders one user as a JSON document. An unknown id is a 404
// problem response.
func (c *UserController) ShowJSON(p *UserPath) (*mvc.ModelAndView, error) {
	user, ok := c.users.FindByID(p.ID)
	if !ok {
		return nil, apierrors.NotFoundError("user")
	}
	return mvc.JSON(mvc.Model{"user": user}), nil
}

// Create saves the account and answers 201 with the new user. A taken
// account is a 409 problem response.
func (c *UserController) Create(ctx context.Context, form *RegisterForm) (*mvc.ModelAndView, error) {
	user, err := c.users.Save(form.Account, form.Password, form.Email)
	if errors.Is(err, repository.ErrDuplicateAccount) {
		return nil, apierrors.ErrConflict
	}
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user created",
		slog.String("account", user.Account),
		slog.Int64("user_id", user.ID))
	return mvc.JSON(mvc.Model{"user": user}).WithStatus(http.StatusCreated), nil
}

func notFound(id int64) *mvc.ModelAndView {
	return mvc.NewModelAndView(UserNotFoundView).
		WithStatus(http.StatusNotFound).
		AddObject("id", id)
}
