// Package icn provides a fake IBM Content Navigator admin API: logon,
// loadPlugin and plugin configuration save.
package icn

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/islo-labs/icn-push/pkg/fake"
)

// SessionCookie is the cookie carrying the server-side session id.
const SessionCookie = "JSESSIONID"

const defaultContextRoot = "/navigator/"

// ICNPlugin is a fake ICN server.
type ICNPlugin struct {
	store       *Store
	router      *http.ServeMux
	contextRoot string
	users       map[string]string // nil accepts any credentials
	jsonPrefix  bool
}

// New creates a new ICNPlugin.
func New() fake.Service {
	return NewICNPlugin()
}

// NewICNPlugin creates a new ICNPlugin with its concrete type, for callers
// that want to inspect the store.
func NewICNPlugin() *ICNPlugin {
	p := &ICNPlugin{store: NewStore(), contextRoot: defaultContextRoot}
	p.setupRoutes()
	return p
}

func (p *ICNPlugin) Info() fake.Info {
	return fake.Info{Name: "icn", Version: "v1"}
}

// Configure understands CONTEXT_ROOT, USERS ("user:pass,...") and JSON_PREFIX.
func (p *ICNPlugin) Configure(env map[string]string) error {
	if root, ok := env["CONTEXT_ROOT"]; ok {
		p.contextRoot = "/" + strings.Trim(root, "/") + "/"
		if p.contextRoot == "//" {
			p.contextRoot = "/"
		}
	}
	if users, ok := env["USERS"]; ok {
		p.users = make(map[string]string)
		for _, pair := range strings.Split(users, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			user, pass, found := strings.Cut(pair, ":")
			if !found || user == "" {
				return fmt.Errorf("invalid USERS entry %q, want user:password", pair)
			}
			p.users[user] = pass
		}
	}
	if v, ok := env["JSON_PREFIX"]; ok {
		prefix, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid JSON_PREFIX %q: %w", v, err)
		}
		p.jsonPrefix = prefix
	}
	p.setupRoutes()
	return nil
}

func (p *ICNPlugin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.router.ServeHTTP(w, r)
}

func (p *ICNPlugin) Reset() error {
	p.store.Reset()
	return nil
}

// Store exposes the server state.
func (p *ICNPlugin) Store() *Store {
	return p.store
}

// ContextRoot returns the path the admin API is mounted under.
func (p *ICNPlugin) ContextRoot() string {
	return p.contextRoot
}

func (p *ICNPlugin) setupRoutes() {
	p.router = http.NewServeMux()
	p.router.HandleFunc("POST "+p.contextRoot+"jaxrs/logon", p.logon)
	p.router.HandleFunc("POST "+p.contextRoot+"jaxrs/admin/loadPlugin", p.loadPlugin)
	p.router.HandleFunc("POST "+p.contextRoot+"jaxrs/admin/configuration", p.saveConfiguration)
	p.router.HandleFunc("GET /_/plugins", p.listPlugins)
}

type message struct {
	Text string `json:"text"`
}

func (p *ICNPlugin) logon(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	user := r.PostForm.Get("userid")
	pass := r.PostForm.Get("password")
	if r.PostForm.Get("desktop") == "" {
		p.writeJSON(w, http.StatusOK, map[string]any{
			"errors": []message{{Text: "A desktop is required."}},
		})
		return
	}
	if !p.validUser(user, pass) {
		p.writeJSON(w, http.StatusOK, map[string]any{
			"errors": []message{{Text: "The user ID or password is not valid for the server."}},
		})
		return
	}
	sess := p.store.Logon(user)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
	})
	p.writeJSON(w, http.StatusOK, map[string]string{"security_token": sess.Token})
}

func (p *ICNPlugin) validUser(user, pass string) bool {
	if user == "" {
		return false
	}
	if p.users == nil {
		return true
	}
	want, ok := p.users[user]
	return ok && want == pass
}

// authorize checks the session cookie and security_token header.
func (p *ICNPlugin) authorize(w http.ResponseWriter, r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		http.Error(w, "not logged on", http.StatusForbidden)
		return false
	}
	if _, ok := p.store.Authorize(cookie.Value, r.Header.Get("security_token")); !ok {
		http.Error(w, "invalid security token", http.StatusForbidden)
		return false
	}
	return true
}

func (p *ICNPlugin) loadPlugin(w http.ResponseWriter, r *http.Request) {
	if !p.authorize(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	fileName := r.PostForm.Get("fileName")
	if fileName == "" {
		http.Error(w, "fileName is required", http.StatusBadRequest)
		return
	}
	d, err := DescriptorFor(fileName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.store.Stage(d)
	p.writeJSON(w, http.StatusOK, d)
}

func (p *ICNPlugin) saveConfiguration(w http.ResponseWriter, r *http.Request) {
	if !p.authorize(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("action") != "update" || r.PostForm.Get("configuration") != "PluginConfig" {
		http.Error(w, "unsupported configuration action", http.StatusBadRequest)
		return
	}
	var cfg PluginConfig
	if err := json.Unmarshal([]byte(r.PostForm.Get("json_post")), &cfg); err != nil {
		http.Error(w, "invalid json_post", http.StatusBadRequest)
		return
	}
	d, err := p.store.Save(r.PostForm.Get("id"), cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.writeJSON(w, http.StatusOK, map[string]any{
		"messages": []message{{Text: fmt.Sprintf("Plug-in %s saved.", d.Name)}},
	})
}

func (p *ICNPlugin) listPlugins(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p.store.ListSaved())
}

// writeJSON writes v as a single line, behind the anti-hijacking prefix
// when enabled.
func (p *ICNPlugin) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if p.jsonPrefix {
		fmt.Fprint(w, "{}&&")
	}
	json.NewEncoder(w).Encode(v)
}

// DescriptorFor derives the plugin description from a jar file name:
// "/plugins/Audit-1.2.0.jar" becomes name Audit, version 1.2.0.
func DescriptorFor(fileName string) (Descriptor, error) {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	base = strings.TrimSuffix(base, ".jar")

	name, version := base, "1.0"
	if i := strings.LastIndex(base, "-"); i > 0 && i < len(base)-1 && unicode.IsDigit(rune(base[i+1])) {
		name, version = base[:i], base[i+1:]
	}
	id := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, name)
	if id == "" {
		return Descriptor{}, fmt.Errorf("cannot derive a plugin id from %q", fileName)
	}
	return Descriptor{
		ID:          id,
		Name:        name,
		Version:     version,
		ConfigClass: strings.ToLower(id) + "." + id + "Configuration",
	}, nil
}
