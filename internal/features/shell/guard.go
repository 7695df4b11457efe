package shell

import (
	"net/http"
	"net/url"
)

// Admitter decides whether the request's session may see a guarded page.
type Admitter interface {
	Admit(r *http.Request) (bool, error)
}

// AdmitFunc adapts a function to Admitter.
type AdmitFunc func(r *http.Request) (bool, error)

func (f AdmitFunc) Admit(r *http.Request) (bool, error) {
	return f(r)
}

// DenyFunc produces the alternate view shown when admission fails.
type DenyFunc func(r *http.Request) View

// Protected gates inner behind admit. The inner page is never invoked on denial.
func Protected(admit Admitter, deny DenyFunc, inner Page) Page {
	if deny == nil {
		deny = Placeholder("", http.StatusForbidden)
	}
	return PageFunc(func(w http.ResponseWriter, r *http.Request) (View, error) {
		ok, err := admit.Admit(r)
		if err != nil {
			return View{}, err
		}
		if !ok {
			return deny(r), nil
		}
		return inner.Render(w, r)
	})
}

// RedirectToEntry sends denied visitors to entry, remembering where they were going.
func RedirectToEntry(entry string) DenyFunc {
	return func(r *http.Request) View {
		target := entry
		if r.URL.Path != "" && r.URL.Path != entry {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		return Redirect(target)
	}
}

// Placeholder renders tmpl (or an empty content area) with status instead of the guarded page.
func Placeholder(tmpl string, status int) DenyFunc {
	return func(r *http.Request) View {
		return View{Template: tmpl, Status: status}
	}
}
