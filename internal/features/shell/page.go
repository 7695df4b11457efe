package shell

import "net/http"

// View is what a page contributes to one render of the shell.
//
// Template names the content template executed inside the main area; an
// empty Template leaves the area empty. A non-empty Redirect short-circuits
// the layout and sends the client elsewhere.
type View struct {
	Title    string
	Template string
	Data     interface{}
	Status   int
	Redirect string
}

// Page renders the content area for a matched route. Pages may set headers
// and cookies on w but must not write the body.
type Page interface {
	Render(w http.ResponseWriter, r *http.Request) (View, error)
}

// PageFunc adapts a function to Page.
type PageFunc func(w http.ResponseWriter, r *http.Request) (View, error)

func (f PageFunc) Render(w http.ResponseWriter, r *http.Request) (View, error) {
	return f(w, r)
}

// Redirect builds a redirect view.
func Redirect(target string) View {
	return View{Redirect: target, Status: http.StatusFound}
}
