package mvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewModelAndView(t *testing.T) {
	t.Run("forward", func(t *testing.T) {
		mv := NewModelAndView("/index.html")
		assert.Equal(t, "/index.html", mv.View)
		assert.False(t, mv.Redirect)
		assert.NotNil(t, mv.Model)
		assert.Equal(t, http.StatusOK, mv.StatusCode())
		assert.Equal(t, "forward:/index.html", mv.String())
	})

	t.Run("redirect prefix", func(t *testing.T) {
		mv := NewModelAndView("redirect:/login")
		assert.Equal(t, "/login", mv.View)
		assert.True(t, mv.Redirect)
		assert.Equal(t, "redirect:/login", mv.String())
	})

	t.Run("redirect constructor", func(t *testing.T) {
		mv := RedirectTo("/login")
		assert.Equal(t, "/login", mv.View)
		assert.True(t, mv.Redirect)
	})
}

func TestModelAndViewAddObject(t *testing.T) {
	mv := (&ModelAndView{View: "/user.html"}).AddObject("user", "gugu").WithStatus(http.StatusCreated)

	assert.Equal(t, Model{"user": "gugu"}, mv.Model)
	assert.Equal(t, http.StatusCreated, mv.StatusCode())
}

func TestJSON(t *testing.T) {
	mv := JSON(nil)
	assert.Equal(t, JSONView, mv.View)
	assert.NotNil(t, mv.Model)
}

func TestPathVarsContext(t *testing.T) {
	assert.Equal(t, PathVars{}, PathVarsFrom(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/users/7", nil)
	req = req.WithContext(WithPathVars(req.Context(), PathVars{"id": "7"}))

	assert.Equal(t, "7", PathVar(req, "id"))
	assert.Equal(t, "", PathVar(req, "missing"))
}

func TestHandlerFunc(t *testing.T) {
	var h Handler = HandlerFunc(func(w http.ResponseWriter, r *http.Request) (*ModelAndView, error) {
		return NewModelAndView("/ok.html"), nil
	})

	mv, err := h.Handle(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.Equal(t, "/ok.html", mv.View)
}
