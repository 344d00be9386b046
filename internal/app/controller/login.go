package controller

import (
	"context"
	"log/slog"
	"net/http"

	"webmvc/internal/app/legacy"
	"webmvc/internal/app/repository"
	"webmvc/internal/component"
	apierrors "webmvc/internal/errors"
	"webmvc/internal/mvc"
)

// UnauthorizedView is forwarded to when a login fails.
const UnauthorizedView = "/401.html"

func init() {
	component.MustRegister(NewLoginController(repository.Users()))
}

// LoginForm is the body of a login request.
type LoginForm struct {
	Account  string `param:"account" json:"account" validate:"required"`
	Password string `param:"password" json:"password" validate:"required"`
}

// LoginController checks credentials against the user repository.
type LoginController struct {
	mvc.Controller `path:"/login"`
	_              mvc.RequestMapping `method:"POST" path:"/" handler:"Login"`
	_              mvc.RequestMapping `method:"GET" path:"/session" handler:"Session"`

	users *repository.UserRepository
}

// NewLoginController creates a LoginController backed by users.
func NewLoginController(users *repository.UserRepository) *LoginController {
	return &LoginController{users: users}
}

// Login sets the session cookie and redirects home on success. Otherwise it
// forwards to the 401 view.
func (c *LoginController) Login(ctx context.Context, w http.ResponseWriter, form *LoginForm) (*mvc.ModelAndView, error) {
	user, ok := c.users.FindByAccount(form.Account)
	if !ok || !user.CheckPassword(form.Password) {
		slog.InfoContext(ctx, "login rejected", slog.String("account", form.Account))
		return mvc.NewModelAndView(UnauthorizedView).
			WithStatus(http.StatusUnauthorized).
			AddObject("account", form.Account), nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     legacy.SessionCookie,
		Value:    user.Account,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	slog.InfoContext(ctx, "login accepted",
		slog.String("account", user.Account),
		slog.Int64("user_id", user.ID))
	return mvc.RedirectTo("/"), nil
}

// Session renders the signed-in user as JSON. Without a session cookie naming
// a known account it is a 401 problem response.
func (c *LoginController) Session(r *http.Request) (*mvc.ModelAndView, error) {
	cookie, err := r.Cookie(legacy.SessionCookie)
	if err != nil {
		return nil, apierrors.ErrUnauthorized
	}
	user, ok := c.users.FindByAccount(cookie.Value)
	if !ok {
		return nil, apierrors.ErrUnauthorized
	}
	return mvc.JSON(mvc.Model{"user": user}), nil
}
