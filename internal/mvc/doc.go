// Package mvc holds the vocabulary shared by every part of the dispatch core:
// render instructions, route keys and path patterns, resolution results and
// the two handler declaration styles.
//
// # Render instructions
//
// A ModelAndView names a logical view and carries the model handed to it.
// When Redirect is set, View is a redirect target instead of a view:
//
//	mvc.NewModelAndView("/index.html").AddObject("user", u)
//	mvc.NewModelAndView("redirect:/login") // Redirect == true, View == "/login"
//	mvc.JSON(mvc.Model{"id": 1})           // rendered as JSON by the view layer
//
// # Route keys
//
// A RouteKey pairs an HTTP method (or MethodAny) with a PathPattern. Patterns
// are made of literal segments and template segments:
//
//	/users            literal
//	/users/{id}       one template segment, captured as PathVars["id"]
//
// Keys compare structurally: /users/{id} and /users/{uid} are the same key.
//
// # Handlers
//
// Scanned controllers embed the Controller marker and describe their routes
// with RequestMapping fields:
//
//	type UserController struct {
//	    mvc.Controller `path:"/users"`
//
//	    _ mvc.RequestMapping `method:"GET" path:"/{id}" handler:"Show"`
//	}
//
// Manually registered handlers implement Handler, or are plain functions
// wrapped with HandlerFunc.
package mvc
