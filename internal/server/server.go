// Package server exposes the HTTP API over the engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"ventureline/internal/domain"
	"ventureline/internal/engine"
	"ventureline/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   *engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"venture not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Ventureline API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("server: engine is required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("Ventureline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerVentures(group, cfg.Engine)
	registerStageContents(group, cfg.Engine)
	registerMessages(group, cfg.Engine)
	registerReports(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "bad_request", ve.Msg, nil)
	}
	var ie *engine.IncompleteStagesError
	if errors.As(err, &ie) {
		names := make([]string, len(ie.Missing))
		for i, s := range ie.Missing {
			names[i] = string(s)
		}
		return newAPIError(http.StatusBadRequest, "incomplete_stages", ie.Error(), map[string]any{"missingStages": names})
	}
	var se *engine.SynthesisError
	if errors.As(err, &se) {
		return newAPIError(http.StatusInternalServerError, "synthesis_failed", "Failed to generate report", nil)
	}
	if errors.Is(err, store.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", "not found", nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func parseStageParam(raw string) (domain.Stage, huma.StatusError) {
	stage, err := domain.ParseStage(raw)
	if err != nil {
		return "", newAPIError(http.StatusBadRequest, "invalid_stage", "Invalid stage", map[string]any{"stage": raw})
	}
	return stage, nil
}

var errorStatuses = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusNotFound,
	http.StatusInternalServerError,
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Status string `json:"status" example:"ok"`
		}
	}, error) {
		resp := &struct {
			Body struct {
				Status string `json:"status" example:"ok"`
			}
		}{}
		resp.Body.Status = "ok"
		return resp, nil
	})
}

func registerVentures(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-ventures",
		Method:      http.MethodGet,
		Path:        "/ventures",
		Summary:     "List ventures for a user",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		UserID string `query:"userId" required:"false"`
	}) (*struct {
		Body []VentureResponse `json:"body"`
	}, error) {
		userID := input.UserID
		if userID == "" {
			userID = userIDFromContext(ctx)
		}
		items, err := e.ListVentures(ctx, userID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []VentureResponse `json:"body"`
		}{Body: mapVentures(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-venture",
		Method:        http.MethodPost,
		Path:          "/ventures",
		Summary:       "Create venture",
		DefaultStatus: http.StatusCreated,
		Errors:        errorStatuses,
	}, func(ctx context.Context, input *struct {
		Body CreateVentureRequest `json:"body"`
	}) (*struct {
		Body VentureResponse `json:"body"`
	}, error) {
		userID := userIDFromContext(ctx)
		if input.Body.UserID != nil && *input.Body.UserID != "" {
			userID = *input.Body.UserID
		}
		v, err := e.CreateVenture(ctx, userID, input.Body.Title)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body VentureResponse `json:"body"`
		}{Body: ventureResponse(v)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-venture",
		Method:      http.MethodGet,
		Path:        "/ventures/{id}",
		Summary:     "Get venture",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body VentureResponse `json:"body"`
	}, error) {
		v, err := e.GetVenture(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body VentureResponse `json:"body"`
		}{Body: ventureResponse(v)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-venture",
		Method:      http.MethodPatch,
		Path:        "/ventures/{id}",
		Summary:     "Update venture",
		Description: "Partial update; used for stage advancement.",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body UpdateVentureRequest `json:"body"`
	}) (*struct {
		Body VentureResponse `json:"body"`
	}, error) {
		v, err := e.UpdateVenture(ctx, input.ID, engine.VentureUpdateOptions{
			Title:        input.Body.Title,
			CurrentStage: input.Body.CurrentStage,
			IsCompleted:  input.Body.IsCompleted,
			ActorID:      userIDFromContext(ctx),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body VentureResponse `json:"body"`
		}{Body: ventureResponse(v)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-venture",
		Method:        http.MethodDelete,
		Path:          "/ventures/{id}",
		Summary:       "Delete venture",
		DefaultStatus: http.StatusNoContent,
		Errors:        errorStatuses,
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := e.DeleteVenture(ctx, input.ID, userIDFromContext(ctx)); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerStageContents(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-stage-contents",
		Method:      http.MethodGet,
		Path:        "/ventures/{ventureId}/stages",
		Summary:     "List stage contents",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		VentureID string `path:"ventureId"`
	}) (*struct {
		Body []StageContentResponse `json:"body"`
	}, error) {
		items, err := e.ListStageContents(ctx, input.VentureID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []StageContentResponse `json:"body"`
		}{Body: mapStageContents(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-stage-content",
		Method:      http.MethodGet,
		Path:        "/ventures/{ventureId}/stages/{stage}",
		Summary:     "Get stage content",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		VentureID string `path:"ventureId"`
		Stage     string `path:"stage"`
	}) (*struct {
		Body StageContentResponse `json:"body"`
	}, error) {
		stage, serr := parseStageParam(input.Stage)
		if serr != nil {
			return nil, serr
		}
		sc, err := e.GetStageContent(ctx, input.VentureID, stage)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body StageContentResponse `json:"body"`
		}{Body: stageContentResponse(sc)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "upsert-stage-content",
		Method:        http.MethodPost,
		Path:          "/ventures/{ventureId}/stages/{stage}",
		Summary:       "Create or update stage content",
		DefaultStatus: http.StatusCreated,
		Errors:        errorStatuses,
	}, func(ctx context.Context, input *struct {
		VentureID string                    `path:"ventureId"`
		Stage     string                    `path:"stage"`
		Body      UpsertStageContentRequest `json:"body"`
	}) (*struct {
		Body StageContentResponse `json:"body"`
	}, error) {
		stage, serr := parseStageParam(input.Stage)
		if serr != nil {
			return nil, serr
		}
		sc, err := e.UpsertStageContent(ctx, input.VentureID, stage, engine.StageContentOptions{
			Content:     encodeJSONMap(input.Body.Content),
			AIAnalysis:  encodeJSONMap(input.Body.AIAnalysis),
			IsCompleted: input.Body.IsCompleted,
			ActorID:     userIDFromContext(ctx),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body StageContentResponse `json:"body"`
		}{Body: stageContentResponse(sc)}, nil
	})
}

func registerMessages(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-messages",
		Method:      http.MethodGet,
		Path:        "/ventures/{ventureId}/stages/{stage}/messages",
		Summary:     "List conversation for a stage",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		VentureID string `path:"ventureId"`
		Stage     string `path:"stage"`
	}) (*struct {
		Body []ChatMessageResponse `json:"body"`
	}, error) {
		stage, serr := parseStageParam(input.Stage)
		if serr != nil {
			return nil, serr
		}
		items, err := e.ListMessages(ctx, input.VentureID, stage)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ChatMessageResponse `json:"body"`
		}{Body: mapChatMessages(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-message",
		Method:      http.MethodPost,
		Path:        "/ventures/{ventureId}/stages/{stage}/messages",
		Summary:     "Submit user message",
		Description: "Runs the stage's analysis routine and returns the persisted message pair plus any analysis.",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		VentureID string               `path:"ventureId"`
		Stage     string               `path:"stage"`
		Body      SubmitMessageRequest `json:"body"`
	}) (*struct {
		Body TurnResponse `json:"body"`
	}, error) {
		stage, serr := parseStageParam(input.Stage)
		if serr != nil {
			return nil, serr
		}
		turn, err := e.SubmitMessage(ctx, input.VentureID, stage, input.Body.Content, userIDFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TurnResponse `json:"body"`
		}{Body: turnResponse(turn)}, nil
	})
}

func registerReports(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-report",
		Method:      http.MethodPost,
		Path:        "/ventures/{ventureId}/report",
		Summary:     "Generate report",
		Description: "Requires all six working stages to be completed; marks the venture completed on success.",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		VentureID string `path:"ventureId"`
	}) (*struct {
		Body ReportResponse `json:"body"`
	}, error) {
		report, err := e.GenerateReport(ctx, input.VentureID, userIDFromContext(ctx))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportResponse `json:"body"`
		}{Body: reportResponse(report)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-report",
		Method:      http.MethodGet,
		Path:        "/ventures/{ventureId}/report",
		Summary:     "Get report",
		Errors:      errorStatuses,
	}, func(ctx context.Context, input *struct {
		VentureID string `path:"ventureId"`
	}) (*struct {
		Body ReportResponse `json:"body"`
	}, error) {
		report, err := e.GetReport(ctx, input.VentureID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportResponse `json:"body"`
		}{Body: reportResponse(report)}, nil
	})
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Ventureline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}
