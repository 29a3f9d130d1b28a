package handler

import (
	"errors"
	"html/template"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	tenants "github.com/steepleworks/chorus/domains/tenants/be/service"
	"github.com/steepleworks/chorus/platform/go/logging"
	"github.com/steepleworks/chorus/platform/go/moduleconf"
	"github.com/steepleworks/chorus/platform/go/permissions"
	"github.com/steepleworks/chorus/platform/go/session"
)

// Handler serves the console shell: the dashboard with its module links,
// the church switcher and sign-out.
type Handler struct {
	tenants   *tenants.Service
	loader    *moduleconf.Loader
	store     permissions.OverrideStore
	sessions  *session.Manager
	templates *template.Template
	logger    *zap.Logger
}

// New constructs the shell Handler.
func New(tenantsSvc *tenants.Service, loader *moduleconf.Loader, store permissions.OverrideStore, sessions *session.Manager, templates *template.Template, logger *zap.Logger) *Handler {
	if tenantsSvc == nil {
		panic("tenants service is required")
	}
	if loader == nil {
		panic("module configuration loader is required")
	}
	if store == nil {
		panic("store is required")
	}
	if sessions == nil {
		panic("session manager is required")
	}
	if templates == nil {
		panic("templates are required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{
		tenants:   tenantsSvc,
		loader:    loader,
		store:     store,
		sessions:  sessions,
		templates: templates,
		logger:    logger,
	}
}

// Routes returns the router for the shell surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.dashboard)
	r.Post("/tenant", h.switchTenant)
	r.Post("/logout", h.logout)
	return r
}

type moduleLink struct {
	Key   string
	Label string
}

type dashboardPage struct {
	Title          string
	ActiveTenantID string
	Memberships    []tenants.Membership
	Modules        []moduleLink
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "sign-in required", http.StatusUnauthorized)
		return
	}

	memberships, err := h.tenants.Memberships(r.Context(), sess.UserID)
	if err != nil {
		logging.FromRequest(r, h.logger).Error("list memberships", zap.Error(err))
		http.Error(w, "memberships unavailable", http.StatusInternalServerError)
		return
	}

	oracle, err := permissions.Load(r.Context(), h.store, sess.TenantID, sess.TenantRole)
	if err != nil {
		logging.FromRequest(r, h.logger).Error("load permissions", zap.Error(err))
		http.Error(w, "permissions unavailable", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "dashboard", dashboardPage{
		Title:          "Dashboard",
		ActiveTenantID: sess.TenantID,
		Memberships:    memberships,
		Modules:        h.moduleLinks(oracle),
	})
}

// moduleLinks resolves the readable modules for the oracle, sorted by label.
// A module whose configuration fails to load is skipped rather than breaking
// the whole dashboard.
func (h *Handler) moduleLinks(oracle *permissions.Oracle) []moduleLink {
	links := make([]moduleLink, 0)
	for _, key := range h.loader.Keys() {
		if !oracle.Can(permissions.ActionRead, key) {
			continue
		}
		cfg, err := h.loader.Load(key)
		if err != nil {
			h.logger.Warn("skip module with unusable configuration", zap.String("module", key), zap.Error(err))
			continue
		}
		links = append(links, moduleLink{Key: key, Label: cfg.Label})
	}

	sort.Slice(links, func(i, j int) bool { return links[i].Label < links[j].Label })
	return links
}

func (h *Handler) switchTenant(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "sign-in required", http.StatusUnauthorized)
		return
	}

	churchID := r.PostFormValue("church")
	if churchID == "" {
		http.Error(w, "church is required", http.StatusBadRequest)
		return
	}

	membership, err := h.tenants.Membership(r.Context(), sess.UserID, churchID)
	if err != nil {
		if errors.Is(err, tenants.ErrNotMember) {
			http.Error(w, "not a member of that church", http.StatusForbidden)
			return
		}
		logging.FromRequest(r, h.logger).Error("validate tenant switch", zap.Error(err))
		http.Error(w, "tenant switch failed", http.StatusInternalServerError)
		return
	}

	sess.TenantID = membership.ChurchID
	sess.TenantRole = membership.Role
	token, err := h.sessions.Issue(sess, time.Now().UTC())
	if err != nil {
		logging.FromRequest(r, h.logger).Error("issue session", zap.Error(err))
		http.Error(w, "tenant switch failed", http.StatusInternalServerError)
		return
	}

	session.WriteCookie(w, token, h.sessions.TTL())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	session.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		logging.FromRequest(r, h.logger).Error("render template", zap.String("template", name), zap.Error(err))
	}
}
