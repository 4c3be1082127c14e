package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/dto"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/interaction"
	"github.com/aretw0/parley/pkg/managed"
)

// DescribeArgs are the arguments of describe_object.
type DescribeArgs struct {
	Bookmark string `json:"bookmark"`
	Where    string `json:"where,omitempty"`
}

// InvokeArgs are the arguments of invoke_action.
type InvokeArgs struct {
	Bookmark string            `json:"bookmark"`
	Action   string            `json:"action"`
	Args     map[string]string `json:"args,omitempty"`
}

// ModifyArgs are the arguments of modify_property.
type ModifyArgs struct {
	Bookmark string `json:"bookmark"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

// InvokeResult is the outcome of invoke_action. A vetoed invocation is a
// regular result with Veto set.
type InvokeResult struct {
	Result *dto.ObjectRef    `json:"result,omitempty" jsonschema_description:"What the action returned"`
	Owner  string            `json:"owner,omitempty" jsonschema_description:"Bookmark of the owner after the invocation"`
	Veto   *dto.VetoResponse `json:"veto,omitempty" jsonschema_description:"Why the invocation was refused"`
}

// ModifyResult is the outcome of modify_property.
type ModifyResult struct {
	Property *dto.PropertyResponse `json:"property,omitempty" jsonschema_description:"The property after modification"`
	Veto     *dto.VetoResponse     `json:"veto,omitempty" jsonschema_description:"Why the modification was refused"`
}

// TypeInfo is an entry of the parley://types resource.
type TypeInfo struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Actions []string `json:"actions,omitempty"`
}

// Server exposes the members of bookmarked objects as MCP tools.
type Server struct {
	env       *managed.Env
	view      *dto.Describer
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logging.For(logger, "mcp")
	}
}

// NewServer creates a new MCP Server instance over env.
func NewServer(env *managed.Env, opts ...Option) *Server {
	s := &Server{
		env:       env,
		view:      dto.NewDescriber(env),
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("parley-mcp", strings.TrimSpace(parley.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: describe_object
	describeTool := mcp.NewTool("describe_object",
		mcp.WithDescription("Describe an object: its title and the properties, collections and actions visible to you."),
		mcp.WithString("bookmark", mcp.Required(), mcp.Description("Object reference as <type>:<id>")),
		mcp.WithString("where", mcp.Description("Where the object is shown (default object_forms)")),
		mcp.WithOutputSchema[dto.ObjectResponse](),
	)
	s.mcpServer.AddTool(describeTool, mcp.NewStructuredToolHandler(s.DescribeObject))

	// TOOL: invoke_action
	invokeTool := mcp.NewTool("invoke_action",
		mcp.WithDescription("Invoke an action of an object. Arguments not given keep their defaults."),
		mcp.WithString("bookmark", mcp.Required(), mcp.Description("Owner reference as <type>:<id>")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action id")),
		mcp.WithObject("args", mcp.Description("Arguments in text form keyed by parameter id; objects are given by bookmark")),
		mcp.WithOutputSchema[InvokeResult](),
	)
	s.mcpServer.AddTool(invokeTool, mcp.NewStructuredToolHandler(s.InvokeAction))

	// TOOL: modify_property
	modifyTool := mcp.NewTool("modify_property",
		mcp.WithDescription("Set a property of an object."),
		mcp.WithString("bookmark", mcp.Required(), mcp.Description("Owner reference as <type>:<id>")),
		mcp.WithString("property", mcp.Required(), mcp.Description("Property id")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value in text form; empty clears it")),
		mcp.WithOutputSchema[ModifyResult](),
	)
	s.mcpServer.AddTool(modifyTool, mcp.NewStructuredToolHandler(s.ModifyProperty))
}

// DescribeObject handles describe_object.
func (s *Server) DescribeObject(ctx context.Context, _ mcp.CallToolRequest, args DescribeArgs) (dto.ObjectResponse, error) {
	owner, err := s.view.Resolve(ctx, args.Bookmark)
	if err != nil {
		return dto.ObjectResponse{}, err
	}
	where := domain.WhereObjectForms
	if args.Where != "" {
		where = domain.Where(args.Where)
	}
	return s.view.Describe(ctx, owner, where), nil
}

// InvokeAction handles invoke_action.
func (s *Server) InvokeAction(ctx context.Context, _ mcp.CallToolRequest, args InvokeArgs) (InvokeResult, error) {
	owner, err := s.view.Resolve(ctx, args.Bookmark)
	if err != nil {
		return InvokeResult{}, err
	}
	ai := interaction.StartAction(ctx, s.env, owner, args.Action, domain.WhereObjectForms).
		CheckVisibility(ctx).
		CheckUsability(ctx)
	if v, vetoed := ai.Veto(); vetoed {
		return InvokeResult{Veto: ptr(dto.Veto(v))}, nil
	}

	a := ai.MustManagedAction()
	model := a.StartParameterNegotiation(ctx)
	if err := s.view.Apply(ctx, model, args.Args); err != nil {
		return InvokeResult{}, err
	}
	rw, err := ai.InvokeWith(ctx, model)
	if err != nil {
		s.logger.Error("MCP invoke failed", "action", args.Action, "err", err)
		return InvokeResult{}, fmt.Errorf("invoke failed: %w", err)
	}
	if v, vetoed := rw.GetVeto(); vetoed {
		return InvokeResult{Veto: ptr(dto.Veto(v))}, nil
	}

	result, _ := rw.GetSuccess()
	out := InvokeResult{Owner: s.view.Bookmark(a.Owner())}
	if !result.IsEmpty() {
		out.Result = ptr(s.view.Ref(result))
	}
	return out, nil
}

// ModifyProperty handles modify_property.
func (s *Server) ModifyProperty(ctx context.Context, _ mcp.CallToolRequest, args ModifyArgs) (ModifyResult, error) {
	owner, err := s.view.Resolve(ctx, args.Bookmark)
	if err != nil {
		return ModifyResult{}, err
	}
	pi := interaction.StartProperty(ctx, s.env, owner, args.Property, domain.WhereObjectForms).
		CheckVisibility(ctx).
		CheckUsability(ctx)
	if v, vetoed := pi.Veto(); vetoed {
		return ModifyResult{Veto: ptr(dto.Veto(v))}, nil
	}

	p := pi.MustManagedProperty()
	value, err := s.view.Parse(ctx, p.ElementSpec(), false, args.Value)
	if err != nil {
		return ModifyResult{}, fmt.Errorf("invalid value: %w", err)
	}
	if v := p.ModifyProperty(ctx, value); v != nil {
		return ModifyResult{Veto: ptr(dto.Veto(*v))}, nil
	}

	resp := s.view.Property(ctx, p)
	resp.Owner = s.view.Bookmark(p.Owner())
	return ModifyResult{Property: &resp}, nil
}

// Types lists the registered types.
func (s *Server) Types() []TypeInfo {
	var out []TypeInfo
	for _, spec := range s.env.Registry.Specs() {
		info := TypeInfo{Name: spec.LogicalTypeName, Kind: string(spec.Kind)}
		for _, a := range spec.Actions {
			info.Actions = append(info.Actions, a.ID)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Server) registerResources() {
	// EXPOSE: parley://types
	s.mcpServer.AddResource(mcp.NewResource("parley://types", "Registered Types",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.Types())
		if err != nil {
			return nil, fmt.Errorf("failed to encode types: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "parley://types",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func ptr[T any](v T) *T {
	return &v
}
