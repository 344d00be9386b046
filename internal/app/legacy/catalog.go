// Package legacy holds the hand-wired handlers of the demo application.
// They implement mvc.Handler and are bound to routes by name through the
// dispatch.manual_routes configuration.
package legacy

import (
	"fmt"
	"net/http"
	"sort"

	"webmvc/internal/app/repository"
	"webmvc/internal/mvc"
)

// Catalog maps handler names to manual handlers.
type Catalog map[string]mvc.Handler

// NewCatalog builds the demo handlers.
func NewCatalog(users *repository.UserRepository) Catalog {
	return Catalog{
		"index":         &HomeController{users: users},
		"login-view":    ForwardController("/login.html"),
		"register-view": ForwardController("/register.html"),
		"logout":        &LogoutController{},
	}
}

// Lookup returns the handler registered under name.
func (c Catalog) Lookup(name string) (mvc.Handler, error) {
	h, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("legacy: no handler named %q (have %v)", name, c.Names())
	}
	return h, nil
}

// Names lists the catalog in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HomeController renders the index page with every registered user and the
// account of the current login, if any.
type HomeController struct {
	users *repository.UserRepository
}

func (c *HomeController) Handle(w http.ResponseWriter, r *http.Request) (*mvc.ModelAndView, error) {
	mv := mvc.NewModelAndView("/index.html").AddObject("users", c.users.FindAll())
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if u, ok := c.users.FindByAccount(cookie.Value); ok {
			mv.AddObject("current", u)
		}
	}
	return mv, nil
}

// ForwardController forwards to a fixed view.
type ForwardController string

func (f ForwardController) Handle(w http.ResponseWriter, r *http.Request) (*mvc.ModelAndView, error) {
	if f == "" {
		return nil, fmt.Errorf("legacy: forward controller without a view")
	}
	return mvc.NewModelAndView(string(f)), nil
}

// LogoutController clears the login cookie and redirects home.
type LogoutController struct{}

func (c *LogoutController) Handle(w http.ResponseWriter, r *http.Request) (*mvc.ModelAndView, error) {
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	return mvc.RedirectTo("/"), nil
}

// SessionCookie is the cookie the demo uses to remember a login.
const SessionCookie = "webmvc_account"
