package icn

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(t *testing.T, h http.Handler, path string, form url.Values, cookie *http.Cookie, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if token != "" {
		req.Header.Set("security_token", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// logon returns the session cookie and token for user.
func logon(t *testing.T, p *ICNPlugin, user, pass string) (*http.Cookie, string) {
	t.Helper()
	rec := postForm(t, p, p.ContextRoot()+"jaxrs/logon", url.Values{
		"userid":   {user},
		"password": {pass},
		"desktop":  {"admin"},
	}, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(rec.Body.String(), "{}&&")), &resp))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0], resp["security_token"]
}

func TestDescriptorFor(t *testing.T) {
	tests := []struct {
		file string
		want Descriptor
	}{
		{"/opt/plugins/MyPlugin-1.0.jar", Descriptor{ID: "MyPlugin", Name: "MyPlugin", Version: "1.0", ConfigClass: "myplugin.MyPluginConfiguration"}},
		{`C:\plugins\audit-trail-2.3.1.jar`, Descriptor{ID: "audittrail", Name: "audit-trail", Version: "2.3.1", ConfigClass: "audittrail.audittrailConfiguration"}},
		{"Viewer.jar", Descriptor{ID: "Viewer", Name: "Viewer", Version: "1.0", ConfigClass: "viewer.ViewerConfiguration"}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := DescriptorFor(tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DescriptorFor("/plugins/---.jar")
	assert.Error(t, err)
}

func TestConfigure_InvalidUsers(t *testing.T) {
	p := NewICNPlugin()
	err := p.Configure(map[string]string{"USERS": "nopassword"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid USERS entry")
}

func TestConfigure_ContextRoot(t *testing.T) {
	p := NewICNPlugin()
	require.NoError(t, p.Configure(map[string]string{"CONTEXT_ROOT": "icn"}))
	assert.Equal(t, "/icn/", p.ContextRoot())

	require.NoError(t, p.Configure(map[string]string{"CONTEXT_ROOT": ""}))
	assert.Equal(t, "/", p.ContextRoot())
}

func TestLogon_RejectsBadPassword(t *testing.T) {
	p := NewICNPlugin()
	require.NoError(t, p.Configure(map[string]string{"USERS": "p8admin:secret"}))

	rec := postForm(t, p, "/navigator/jaxrs/logon", url.Values{
		"userid":   {"p8admin"},
		"password": {"wrong"},
		"desktop":  {"admin"},
	}, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "security_token")
	assert.Contains(t, rec.Body.String(), "not valid")
	assert.Empty(t, rec.Result().Cookies())
	assert.Zero(t, p.Store().Logons())
}

func TestLoadAndSave(t *testing.T) {
	p := NewICNPlugin()
	require.NoError(t, p.Configure(map[string]string{"JSON_PREFIX": "true"}))
	cookie, token := logon(t, p, "anyone", "anything")
	require.NotEmpty(t, token)

	rec := postForm(t, p, "/navigator/jaxrs/admin/loadPlugin", url.Values{
		"fileName": {"/plugins/Audit-1.2.0.jar"},
		"desktop":  {"admin"},
	}, cookie, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "{}&&"))
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(rec.Body.String()), "\n")+1)

	post, err := json.Marshal(PluginConfig{
		Enabled: true, Filename: "/plugins/Audit-1.2.0.jar", Version: "1.2.0",
		Dependencies: []string{}, Name: "Audit", ID: "Audit", ConfigClass: "audit.AuditConfiguration",
	})
	require.NoError(t, err)
	rec = postForm(t, p, "/navigator/jaxrs/admin/configuration", url.Values{
		"action":        {"update"},
		"id":            {"Audit"},
		"configuration": {"PluginConfig"},
		"desktop":       {"admin"},
		"json_post":     {string(post)},
	}, cookie, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Plug-in Audit saved.")

	saved, ok := p.Store().Saved("Audit")
	require.True(t, ok)
	assert.Equal(t, "1.2.0", saved.Version)

	list := httptest.NewRecorder()
	p.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/_/plugins", nil))
	assert.Contains(t, list.Body.String(), `"id":"Audit"`)

	require.NoError(t, p.Reset())
	_, ok = p.Store().Saved("Audit")
	assert.False(t, ok)
}

func TestLoadPlugin_RequiresToken(t *testing.T) {
	p := NewICNPlugin()
	cookie, _ := logon(t, p, "u", "p")

	rec := postForm(t, p, "/navigator/jaxrs/admin/loadPlugin", url.Values{"fileName": {"a.jar"}}, cookie, "forged")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postForm(t, p, "/navigator/jaxrs/admin/loadPlugin", url.Values{"fileName": {"a.jar"}}, nil, "forged")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSave_RequiresLoadedPlugin(t *testing.T) {
	p := NewICNPlugin()
	cookie, token := logon(t, p, "u", "p")

	rec := postForm(t, p, "/navigator/jaxrs/admin/configuration", url.Values{
		"action":        {"update"},
		"id":            {"Ghost"},
		"configuration": {"PluginConfig"},
		"json_post":     {`{"id":"Ghost"}`},
	}, cookie, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "was not loaded")
}
