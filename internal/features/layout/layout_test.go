package layout_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gatehouse/internal/features/layout"
	featuresettings "gatehouse/internal/features/settings"
	"gatehouse/internal/platform/wiring"
	"gatehouse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func links() []layout.NavLink {
	return []layout.NavLink{
		{Route: "entry", Label: "Home", Href: "/"},
		{Route: "use", Label: "Use", Href: "/use"},
	}
}

func TestNavbarAnonymous(t *testing.T) {
	srv := testutil.NewServer(t)
	chrome := layout.NewChrome(wiring.NewDeps(srv), links()...)

	out, err := chrome.Navbar(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/use", nil), "use")
	require.NoError(t, err)
	nav := out.(layout.NavbarData)

	assert.Equal(t, "gatehouse", nav.Brand)
	assert.False(t, nav.SignedIn)
	require.Len(t, nav.Links, 2)
	assert.False(t, nav.Links[0].Active)
	assert.True(t, nav.Links[1].Active)
}

func TestNavbarSignedInIssuesCSRFToken(t *testing.T) {
	srv := testutil.NewServer(t)
	id := testutil.CreateUser(t, srv, "alice", "correct horse")
	chrome := layout.NewChrome(wiring.NewDeps(srv), links()...)

	rec := httptest.NewRecorder()
	out, err := chrome.Navbar(rec, testutil.SignedInRequest(t, srv, http.MethodGet, "/", id), "entry")
	require.NoError(t, err)
	nav := out.(layout.NavbarData)

	assert.True(t, nav.SignedIn)
	assert.Equal(t, "alice", nav.Username)
	assert.NotEmpty(t, nav.CSRFToken)
	assert.NotEmpty(t, rec.Result().Cookies(), "new token must be persisted")
}

func TestNavbarIgnoresDeletedUser(t *testing.T) {
	srv := testutil.NewServer(t)
	chrome := layout.NewChrome(wiring.NewDeps(srv), links()...)

	out, err := chrome.Navbar(httptest.NewRecorder(), testutil.SignedInRequest(t, srv, http.MethodGet, "/", 77), "entry")
	require.NoError(t, err)
	assert.False(t, out.(layout.NavbarData).SignedIn)
}

func TestFooterRendersSanitizedMarkdown(t *testing.T) {
	srv := testutil.NewServer(t)
	deps := wiring.NewDeps(srv)
	chrome := layout.NewChrome(deps, links()...)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	out, err := chrome.Footer(req)
	require.NoError(t, err)
	assert.Contains(t, string(out.(layout.FooterData).Note), "© [<em>Test Author</em>]")

	require.NoError(t, featuresettings.NewService(deps).SaveFooterSettings(context.Background(), featuresettings.FooterSettings{
		Markdown: `**Made** by us <script>alert(1)</script>`,
	}))
	out, err = chrome.Footer(req)
	require.NoError(t, err)
	note := string(out.(layout.FooterData).Note)
	assert.Contains(t, note, "<strong>Made</strong>")
	assert.NotContains(t, note, "<script>")
}

func TestFooterTemplateRendersCopyrightLine(t *testing.T) {
	srv := testutil.NewServer(t)
	chrome := layout.NewChrome(wiring.NewDeps(srv), links()...)

	out, err := chrome.Footer(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	var body strings.Builder
	require.NoError(t, srv.RenderTemplate(&body, "footer", out))
	assert.Contains(t, body.String(), `id="footer"`)
	assert.Contains(t, body.String(), `class="footer-note copyright"><p>© [<em>Test Author</em>]</p>`)
}

func TestMarkdownRender(t *testing.T) {
	html, err := layout.NewMarkdown().Render("[site](https://example.com)")
	require.NoError(t, err)
	assert.Contains(t, string(html), `href="https://example.com"`)
	assert.Contains(t, string(html), `rel="nofollow"`)
}
