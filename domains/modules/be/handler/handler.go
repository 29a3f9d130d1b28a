package handler

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/steepleworks/chorus/domains/modules/be/service"
	"github.com/steepleworks/chorus/platform/go/logging"
	"github.com/steepleworks/chorus/platform/go/moduleconf"
	"github.com/steepleworks/chorus/platform/go/permissions"
	"github.com/steepleworks/chorus/platform/go/render"
	"github.com/steepleworks/chorus/platform/go/session"
)

// Handler serves every module screen from its configuration document. It is
// stateless between requests: the session's active tenant and the permission
// oracle are re-derived per request, so a tenant switch takes effect on the
// very next render.
type Handler struct {
	loader    *moduleconf.Loader
	store     service.Store
	templates *template.Template
	logger    *zap.Logger
	hooks     map[string]service.SaveHook
}

// New constructs the modules Handler. hooks maps module keys to their
// specialized save behavior and may be nil.
func New(loader *moduleconf.Loader, store service.Store, templates *template.Template, logger *zap.Logger, hooks map[string]service.SaveHook) *Handler {
	if loader == nil {
		panic("module configuration loader is required")
	}
	if store == nil {
		panic("store is required")
	}
	if templates == nil {
		panic("templates are required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{loader: loader, store: store, templates: templates, logger: logger, hooks: hooks}
}

// Routes returns the router for the /m/{moduleKey} surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{moduleKey}", func(r chi.Router) {
		r.Get("/", h.screen)
		r.Get("/new", h.newForm)
		r.Post("/", h.create)
		r.Get("/{recordID}/edit", h.editForm)
		r.Post("/{recordID}", h.update)
		r.Get("/{recordID}/delete", h.confirmDelete)
		r.Post("/{recordID}/delete", h.delete)
	})
	return r
}

type screenPage struct {
	Title     string
	ModuleKey string
	Table     render.TableView
}

// ColSpan spans the informational row across every column plus actions.
func (p screenPage) ColSpan() int {
	return len(p.Table.Columns) + 1
}

type formPage struct {
	Title     string
	ModuleKey string
	Action    string
	Form      render.FormView
}

type confirmPage struct {
	Title     string
	ModuleKey string
	RecordID  string
	Summary   string
}

type errorPage struct {
	Title   string
	Heading string
	Message string
}

func (h *Handler) screen(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.buildService(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	view, err := svc.Rows(r.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrNoAccess) {
			h.renderNoAccess(w, r)
			return
		}
		// Render the screen anyway: the load-failed row is deliberately
		// distinct from an empty collection.
		logging.FromRequest(r, h.logger).Error("list records failed", zap.String("module", svc.Config().Key), zap.Error(err))
	}

	h.render(w, r, http.StatusOK, "screen", screenPage{
		Title:     svc.Config().Label,
		ModuleKey: svc.Config().Key,
		Table:     view,
	})
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.buildService(w, r)
	if !ok {
		return
	}

	view, err := svc.NewForm(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "form", formPage{
		Title:     svc.Config().Label,
		ModuleKey: svc.Config().Key,
		Action:    "/m/" + svc.Config().Key,
		Form:      view,
	})
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.buildService(w, r)
	if !ok {
		return
	}

	recordID := chi.URLParam(r, "recordID")
	view, err := svc.EditForm(r.Context(), recordID)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "form", formPage{
		Title:     svc.Config().Label,
		ModuleKey: svc.Config().Key,
		Action:    "/m/" + svc.Config().Key + "/" + recordID,
		Form:      view,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "recordID"))
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, existingID string) {
	svc, ok := h.buildService(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid form", "the submitted form could not be parsed")
		return
	}

	_, err := svc.Save(r.Context(), r.PostForm, existingID)
	if err == nil {
		// Success always routes back through a full list refresh.
		http.Redirect(w, r, "/m/"+svc.Config().Key, http.StatusSeeOther)
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		action := "/m/" + svc.Config().Key
		if existingID != "" {
			action += "/" + existingID
		}
		view, formErr := svc.FormWithError(r.Context(), r.PostForm, existingID, validationErr.Message)
		if formErr != nil {
			h.renderServiceError(w, r, formErr)
			return
		}
		h.render(w, r, http.StatusUnprocessableEntity, "form", formPage{
			Title:     svc.Config().Label,
			ModuleKey: svc.Config().Key,
			Action:    action,
			Form:      view,
		})
		return
	}

	h.renderServiceError(w, r, err)
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.buildService(w, r)
	if !ok {
		return
	}

	recordID := chi.URLParam(r, "recordID")
	summary, err := svc.RecordSummary(r.Context(), recordID)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "confirm_delete", confirmPage{
		Title:     svc.Config().Label,
		ModuleKey: svc.Config().Key,
		RecordID:  recordID,
		Summary:   summary,
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.buildService(w, r)
	if !ok {
		return
	}

	confirmed := r.PostFormValue("confirm") == "yes"
	err := svc.Delete(r.Context(), chi.URLParam(r, "recordID"), confirmed)
	if err != nil && !errors.Is(err, service.ErrNotConfirmed) {
		h.renderServiceError(w, r, err)
		return
	}
	// A declined confirmation falls through: nothing was deleted and the
	// refreshed list is unchanged.
	http.Redirect(w, r, "/m/"+svc.Config().Key, http.StatusSeeOther)
}

// buildService assembles the per-request screen service: session, module
// configuration and a freshly loaded permission oracle. It writes the
// response itself on failure.
func (h *Handler) buildService(w http.ResponseWriter, r *http.Request) (*service.Service, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "sign-in required", http.StatusUnauthorized)
		return nil, false
	}

	moduleKey := chi.URLParam(r, "moduleKey")
	cfg, err := h.loader.Load(moduleKey)
	if err != nil {
		logging.FromRequest(r, h.logger).Error("load module configuration", zap.String("module", moduleKey), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, moduleconf.ErrModuleNotFound) {
			status = http.StatusNotFound
		}
		h.renderError(w, r, status, "Configuration unavailable", "the screen received no usable configuration")
		return nil, false
	}

	oracle, err := permissions.Load(r.Context(), h.store, sess.TenantID, sess.TenantRole)
	if err != nil {
		logging.FromRequest(r, h.logger).Error("load permissions", zap.String("module", moduleKey), zap.Error(err))
		h.renderError(w, r, http.StatusInternalServerError, "Permissions unavailable", "permissions could not be loaded for this church")
		return nil, false
	}

	return service.New(cfg, h.store, oracle, sess.TenantID, h.hooks[moduleKey]), true
}

func (h *Handler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrNoAccess) {
		h.renderNoAccess(w, r)
		return
	}

	logging.FromRequest(r, h.logger).Error("module operation failed", zap.Error(err))
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "the operation failed; try again")
}

func (h *Handler) renderNoAccess(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusForbidden, "No access", "your role does not grant access to this module")
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	h.render(w, r, status, "error", errorPage{Title: heading, Heading: heading, Message: message})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		logging.FromRequest(r, h.logger).Error("render template", zap.String("template", name), zap.Error(err))
	}
}
