package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/parley/internal/dto"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/interaction"
	"github.com/aretw0/parley/pkg/managed"
	"github.com/aretw0/parley/pkg/metamodel"
)

// Server exposes the members of bookmarked objects over HTTP.
type Server struct {
	env     *managed.Env
	view    *dto.Describer
	streams *StreamManager
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logging.For(logger, "http")
	}
}

// NewServer creates a server over env. env must carry an object manager.
func NewServer(env *managed.Env, opts ...Option) *Server {
	s := &Server{
		env:    env,
		view:   dto.NewDescriber(env),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates the HTTP handler for env.
func NewHandler(env *managed.Env, opts ...Option) http.Handler {
	return NewServer(env, opts...).Routes()
}

// Routes returns the router. Every object route takes the bookmark in its
// "<type>:<id>" form.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Route("/objects/{bookmark}", func(r chi.Router) {
		r.Get("/", s.GetObject)
		r.Get("/events", s.SubscribeEvents)
		r.Get("/properties/{id}", s.GetProperty)
		r.Put("/properties/{id}", s.PutProperty)
		r.Get("/collections/{id}", s.GetCollection)
		r.Get("/actions/{id}/invoke", s.InvokeSafe)
		r.Post("/actions/{id}/invoke", s.Invoke)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetObject handles GET /objects/{bookmark}: the object with its visible
// members.
func (s *Server) GetObject(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.view.Describe(r.Context(), owner, whereOf(r, domain.WhereObjectForms)))
}

// GetProperty handles GET /objects/{bookmark}/properties/{id}.
func (s *Server) GetProperty(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	pi := interaction.StartProperty(r.Context(), s.env, owner, chi.URLParam(r, "id"), whereOf(r, domain.WhereObjectForms)).
		CheckVisibility(r.Context())
	p, err := pi.ValidateElseFail(s.vetoed(w))
	if err != nil {
		return
	}
	s.writeJSON(w, http.StatusOK, s.view.Property(r.Context(), p))
}

// PutProperty handles PUT /objects/{bookmark}/properties/{id}. The body
// carries the new value in parsable text form.
func (s *Server) PutProperty(w http.ResponseWriter, r *http.Request) {
	var body dto.ModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PutProperty: invalid request body", "err", err)
		return
	}
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	pi := interaction.StartProperty(ctx, s.env, owner, chi.URLParam(r, "id"), whereOf(r, domain.WhereObjectForms)).
		CheckVisibility(ctx).
		CheckUsability(ctx)
	p, err := pi.ValidateElseFail(s.vetoed(w))
	if err != nil {
		return
	}
	v, err := s.view.Parse(ctx, p.ElementSpec(), false, body.Value)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid value: %v", err), http.StatusBadRequest)
		return
	}
	if veto := p.ModifyProperty(ctx, v); veto != nil {
		_ = s.vetoed(w)(*veto)
		return
	}

	resp := s.view.Property(ctx, p)
	resp.Owner = s.view.Bookmark(p.Owner())
	s.broadcast(chi.URLParam(r, "bookmark"), domain.EventModify, p.ID(), resp.Owner)
	s.writeJSON(w, http.StatusOK, resp)
}

// GetCollection handles GET /objects/{bookmark}/collections/{id}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	ci := interaction.StartCollection(ctx, s.env, owner, chi.URLParam(r, "id"), whereOf(r, domain.WhereParentedTables)).
		CheckVisibility(ctx)
	c, err := ci.ValidateElseFail(s.vetoed(w))
	if err != nil {
		return
	}

	resp := dto.CollectionResponse{ID: c.ID(), Elements: []dto.ObjectRef{}}
	for e := range c.StreamElements(ctx, domain.InitiatedByUser) {
		resp.Elements = append(resp.Elements, s.view.Ref(e))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// InvokeSafe handles GET /objects/{bookmark}/actions/{id}/invoke. Only
// actions that are safe in nature may be invoked this way; arguments come
// from the query string keyed by parameter id.
func (s *Server) InvokeSafe(w http.ResponseWriter, r *http.Request) {
	args := make(map[string]string)
	for k, v := range r.URL.Query() {
		if k != "where" && len(v) > 0 {
			args[k] = v[0]
		}
	}
	s.invoke(w, r, domain.ConstraintSafe, args)
}

// Invoke handles POST /objects/{bookmark}/actions/{id}/invoke.
func (s *Server) Invoke(w http.ResponseWriter, r *http.Request) {
	var body dto.InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invoke: invalid request body", "err", err)
		return
	}
	s.invoke(w, r, domain.ConstraintNone, body.Args)
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request, constraint domain.SemanticsConstraint, args map[string]string) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	ai := interaction.StartAction(ctx, s.env, owner, id, whereOf(r, domain.WhereObjectForms)).
		CheckVisibility(ctx).
		CheckUsability(ctx).
		CheckSemanticConstraint(ctx, constraint)
	a, err := ai.ValidateElseFail(s.vetoed(w))
	if err != nil {
		return
	}

	model := a.StartParameterNegotiation(ctx)
	if err := s.view.Apply(ctx, model, args); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rw, err := ai.InvokeWith(ctx, model)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invoke error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Invoke failed", "action", id, "err", err)
		return
	}
	result, err := rw.GetSuccessElseFail(s.vetoed(w))
	if err != nil {
		return
	}

	resp := dto.InvokeResponse{Owner: s.view.Bookmark(a.Owner())}
	if !result.IsEmpty() {
		ref := s.view.Ref(result)
		resp.Result = &ref
	}
	if !a.Semantics().IsSafeInNature() {
		s.broadcast(chi.URLParam(r, "bookmark"), domain.EventInvoke, id, resp.Owner)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// SubscribeEvents handles GET /objects/{bookmark}/events (SSE). Each
// successful modification or non-safe invocation on the object is pushed to
// its subscribers.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}
	if _, ok := s.owner(w, r); !ok {
		return
	}
	key := chi.URLParam(r, "bookmark")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(key)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "bookmark", key)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

// owner resolves the bookmark path parameter, answering 400 or 404 itself.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (metamodel.ManagedObject, bool) {
	b, err := domain.ParseBookmark(chi.URLParam(r, "bookmark"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return metamodel.ManagedObject{}, false
	}
	if s.env.Objects == nil {
		http.Error(w, "No object manager configured", http.StatusInternalServerError)
		return metamodel.ManagedObject{}, false
	}
	obj, err := s.env.Objects.Resolve(r.Context(), b)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) || errors.Is(err, domain.ErrUnknownType) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return metamodel.ManagedObject{}, false
		}
		http.Error(w, fmt.Sprintf("Resolve error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Resolve failed", "bookmark", b.String(), "err", err)
		return metamodel.ManagedObject{}, false
	}
	return obj, true
}

// vetoed returns the else-fail callback that renders a veto.
func (s *Server) vetoed(w http.ResponseWriter) func(domain.InteractionVeto) error {
	return func(v domain.InteractionVeto) error {
		s.writeJSON(w, StatusOf(v), dto.Veto(v))
		return &domain.VetoError{Veto: v}
	}
}

// StatusOf maps a veto to the HTTP status a viewer acts on: absent members
// are 404, members that exist but may not be used are 403, and rejected
// values are 422.
func StatusOf(v domain.InteractionVeto) int {
	switch v.Type() {
	case domain.VetoNotFound, domain.VetoHidden:
		return http.StatusNotFound
	case domain.VetoReadOnly, domain.VetoActionNotSafe, domain.VetoActionNotIdempotent:
		return http.StatusForbidden
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) broadcast(key string, t domain.EventType, memberID, owner string) {
	msg, err := json.Marshal(dto.Event{Type: t, MemberID: memberID, Owner: owner})
	if err != nil {
		return
	}
	s.streams.Broadcast(key, string(msg))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func whereOf(r *http.Request, def domain.Where) domain.Where {
	if w := r.URL.Query().Get("where"); w != "" {
		return domain.Where(w)
	}
	return def
}
