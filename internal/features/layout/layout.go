package layout

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"gatehouse/internal/config"
	"gatehouse/internal/contracts/users"
	"gatehouse/internal/domain"
	featuresettings "gatehouse/internal/features/settings"
	"gatehouse/internal/platform/core"

	"github.com/gorilla/sessions"
)

type Dependencies interface {
	featuresettings.Store
	Config() config.Config
	GetSession(r *http.Request) (*sessions.Session, error)
	EnsureCSRF(session *sessions.Session) string
	GetUserByID(ctx context.Context, id int) (domain.User, error)
}

// NavLink is one navbar entry; Route is the shell route name it points at.
type NavLink struct {
	Route  string
	Label  string
	Href   string
	Active bool
}

type NavbarData struct {
	Brand     string
	Links     []NavLink
	SignedIn  bool
	Username  string
	CSRFToken string
}

type FooterData struct {
	Note template.HTML
}

// Chrome renders the navbar and footer shared by every page.
type Chrome struct {
	deps     Dependencies
	links    []NavLink
	markdown *Markdown
}

func NewChrome(deps Dependencies, links ...NavLink) Chrome {
	return Chrome{deps: deps, links: links, markdown: NewMarkdown()}
}

// Navbar marks the active route's link and reflects the signed-in user.
func (c Chrome) Navbar(w http.ResponseWriter, r *http.Request, active string) (interface{}, error) {
	data := NavbarData{Brand: c.deps.Config().Brand}
	for _, link := range c.links {
		link.Active = link.Route == active
		data.Links = append(data.Links, link)
	}

	session, err := c.deps.GetSession(r)
	if err != nil {
		return nil, err
	}
	id, ok := core.SessionUserID(session)
	if !ok {
		return data, nil
	}
	user, err := c.deps.GetUserByID(r.Context(), id)
	if errors.Is(err, users.ErrNotFound) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}

	// The sign-out form needs a token that survives into the next request.
	_, hadToken := session.Values[core.SessionCSRFKey]
	data.CSRFToken = c.deps.EnsureCSRF(session)
	if !hadToken {
		if err := session.Save(r, w); err != nil {
			return nil, err
		}
	}
	data.SignedIn = true
	data.Username = user.Username
	return data, nil
}

// Footer renders the configured footer note.
func (c Chrome) Footer(r *http.Request) (interface{}, error) {
	cfg := c.deps.Config()
	settings := featuresettings.NewService(c.deps).FooterSettings(r.Context(), cfg.FooterMarkdown)
	note, err := c.markdown.Render(settings.Markdown)
	if err != nil {
		return nil, err
	}
	return FooterData{Note: note}, nil
}
