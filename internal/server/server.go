package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hireline/internal/domain"
	"hireline/internal/engine"
	"hireline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_transition"`
	Message string         `json:"message" example:"invalid interview status transition completed -> cancelled"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"status\":\"completed\"}"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Hireline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
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
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(data))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Hireline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerEmployers(group, cfg.Engine)
	registerCandidates(group, cfg.Engine)
	registerJobs(group, cfg.Engine)
	registerInterviews(group, cfg.Engine)
	registerNotifications(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	startWebhookDispatcher(cfg.Engine)

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

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid interview status transition"):
		return newAPIError(http.StatusConflict, "invalid_transition", msg, nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	if buf, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return buf
	}
	req, ok := ctx.Value(requestKey{}).(*http.Request)
	if !ok || req == nil {
		return nil
	}
	data, _ := io.ReadAll(req.Body)
	return data
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
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
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
    <title>Hireline API Docs</title>
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
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerEmployers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-employer",
		Method:        http.MethodPost,
		Path:          "/employers",
		Summary:       "Create employer",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateEmployerRequest `json:"body"`
	}) (*struct {
		Body EmployerResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.CompanyName == "" || input.Body.Email == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "company_name and email are required", nil)
		}
		emp := domain.Employer{
			ID:            uuid.New().String(),
			CompanyName:   input.Body.CompanyName,
			ContactName:   input.Body.ContactName,
			Email:         input.Body.Email,
			PushTopic:     input.Body.PushTopic,
			ChatChannelID: input.Body.ChatChannelID,
			CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if err := e.Repo.InsertEmployer(ctx, emp); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EmployerResponse `json:"body"`
		}{Body: employerResponse(emp)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-employers",
		Method:      http.MethodGet,
		Path:        "/employers",
		Summary:     "List employers",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []EmployerResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListEmployers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]EmployerResponse, 0, len(items))
		for _, emp := range items {
			out = append(out, employerResponse(emp))
		}
		return &struct {
			Body []EmployerResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-employer",
		Method:      http.MethodGet,
		Path:        "/employers/{id}",
		Summary:     "Get employer",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body EmployerResponse `json:"body"`
	}, error) {
		emp, err := e.Repo.GetEmployer(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EmployerResponse `json:"body"`
		}{Body: employerResponse(emp)}, nil
	})
}

func registerCandidates(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-candidate",
		Method:        http.MethodPost,
		Path:          "/candidates",
		Summary:       "Create candidate",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateCandidateRequest `json:"body"`
	}) (*struct {
		Body CandidateResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.FullName == "" || input.Body.Email == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "full_name and email are required", nil)
		}
		cand := domain.Candidate{
			ID:        uuid.New().String(),
			FullName:  input.Body.FullName,
			Email:     input.Body.Email,
			PushTopic: input.Body.PushTopic,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := e.Repo.InsertCandidate(ctx, cand); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CandidateResponse `json:"body"`
		}{Body: candidateResponse(cand)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-candidates",
		Method:      http.MethodGet,
		Path:        "/candidates",
		Summary:     "List candidates",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []CandidateResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListCandidates(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]CandidateResponse, 0, len(items))
		for _, c := range items {
			out = append(out, candidateResponse(c))
		}
		return &struct {
			Body []CandidateResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-candidate",
		Method:      http.MethodGet,
		Path:        "/candidates/{id}",
		Summary:     "Get candidate",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body CandidateResponse `json:"body"`
	}, error) {
		c, err := e.Repo.GetCandidate(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CandidateResponse `json:"body"`
		}{Body: candidateResponse(c)}, nil
	})
}

func registerJobs(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-job",
		Method:        http.MethodPost,
		Path:          "/jobs",
		Summary:       "Create job",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateJobRequest `json:"body"`
	}) (*struct {
		Body JobResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.EmployerID == "" || input.Body.Title == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "employer_id and title are required", nil)
		}
		if _, err := e.Repo.GetEmployer(ctx, input.Body.EmployerID); err != nil {
			return nil, handleError(err)
		}
		job := domain.Job{
			ID:         uuid.New().String(),
			EmployerID: input.Body.EmployerID,
			Title:      input.Body.Title,
			Location:   input.Body.Location,
			Status:     "open",
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		}
		if err := e.Repo.InsertJob(ctx, job); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JobResponse `json:"body"`
		}{Body: jobResponse(job)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/jobs",
		Summary:     "List jobs",
	}, func(ctx context.Context, input *struct {
		EmployerID string `query:"employer_id"`
	}) (*struct {
		Body []JobResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListJobs(ctx, input.EmployerID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]JobResponse, 0, len(items))
		for _, j := range items {
			out = append(out, jobResponse(j))
		}
		return &struct {
			Body []JobResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-job",
		Method:      http.MethodGet,
		Path:        "/jobs/{id}",
		Summary:     "Get job",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body JobResponse `json:"body"`
	}, error) {
		j, err := e.Repo.GetJob(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JobResponse `json:"body"`
		}{Body: jobResponse(j)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "record-application",
		Method:        http.MethodPost,
		Path:          "/jobs/{id}/applications",
		Summary:       "Record a job application",
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID   string                   `path:"id"`
		Body RecordApplicationRequest `json:"body"`
	}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if input.Body.CandidateID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "candidate_id is required", nil)
		}
		if err := e.RecordApplication(ctx, input.ID, input.Body.CandidateID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "accepted"}}, nil
	})
}

func registerInterviews(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "schedule-interview",
		Method:        http.MethodPost,
		Path:          "/interviews",
		Summary:       "Schedule interview",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body ScheduleInterviewRequest `json:"body"`
	}) (*struct {
		Body InterviewResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		scheduledAt, err := time.Parse(time.RFC3339, input.Body.ScheduledAt)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "scheduled_at must be RFC 3339", map[string]any{"scheduled_at": input.Body.ScheduledAt})
		}
		iv, err := e.Schedule(ctx, engine.ScheduleOptions{
			EmployerID:       input.Body.EmployerID,
			CandidateID:      input.Body.CandidateID,
			ScheduledAt:      scheduledAt,
			DurationMinutes:  input.Body.DurationMinutes,
			Kind:             input.Body.Kind,
			Location:         input.Body.Location,
			JobID:            input.Body.JobID,
			JobTitleOverride: input.Body.JobTitleOverride,
			Notes:            input.Body.Notes,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterviewResponse `json:"body"`
		}{Body: interviewResponse(iv, e.Window(iv))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-interviews",
		Method:      http.MethodGet,
		Path:        "/interviews",
		Summary:     "List interviews",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		EmployerID  string `query:"employer_id"`
		CandidateID string `query:"candidate_id"`
		Status      string `query:"status"`
		Window      string `query:"window" enum:"upcoming,past"`
	}) (*struct {
		Body []InterviewResponse `json:"body"`
	}, error) {
		// Default the listing to the caller's own interviews.
		if input.EmployerID == "" && input.CandidateID == "" {
			if p, ok := principalFromContext(ctx); ok {
				switch p.ActorType {
				case domain.RecipientEmployer:
					input.EmployerID = p.ActorID
				case domain.RecipientCandidate:
					input.CandidateID = p.ActorID
				}
			}
		}
		items, err := e.ListInterviews(ctx, repo.InterviewFilters{
			EmployerID:  input.EmployerID,
			CandidateID: input.CandidateID,
			Status:      input.Status,
		}, input.Window)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]InterviewResponse, 0, len(items))
		for _, iv := range items {
			out = append(out, interviewResponse(iv, e.Window(iv)))
		}
		return &struct {
			Body []InterviewResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-interview",
		Method:      http.MethodGet,
		Path:        "/interviews/{id}",
		Summary:     "Get interview",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body InterviewResponse `json:"body"`
	}, error) {
		iv, err := e.Repo.GetInterview(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterviewResponse `json:"body"`
		}{Body: interviewResponse(iv, e.Window(iv))}, nil
	})

	type interviewIDPath struct {
		ID string `path:"id"`
	}
	transitionErrors := []int{
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusInternalServerError,
	}
	registerTransition := func(opID, urlPath, summary string, fn func(context.Context, string) (domain.Interview, error)) {
		huma.Register(api, huma.Operation{
			OperationID: opID,
			Method:      http.MethodPost,
			Path:        urlPath,
			Summary:     summary,
			Errors:      transitionErrors,
		}, func(ctx context.Context, input *interviewIDPath) (*struct {
			Body InterviewResponse `json:"body"`
		}, error) {
			iv, err := fn(ctx, input.ID)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body InterviewResponse `json:"body"`
			}{Body: interviewResponse(iv, e.Window(iv))}, nil
		})
	}
	registerTransition("confirm-interview", "/interviews/{id}/confirm", "Confirm interview", e.Confirm)
	registerTransition("start-interview", "/interviews/{id}/start", "Start interview", e.Start)
	registerTransition("no-show-interview", "/interviews/{id}/no-show", "Mark interview no-show", e.MarkNoShow)
	registerTransition("remind-interview", "/interviews/{id}/remind", "Resend interview details", e.Remind)
	registerTransition("cancel-interview", "/interviews/{id}/cancel", "Cancel interview", func(ctx context.Context, id string) (domain.Interview, error) {
		actorID, _ := actorIDFromContext(ctx)
		return e.Cancel(ctx, id, actorID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "reschedule-interview",
		Method:      http.MethodPost,
		Path:        "/interviews/{id}/reschedule",
		Summary:     "Reschedule interview",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                     `path:"id"`
		Body RescheduleInterviewRequest `json:"body"`
	}) (*struct {
		Body InterviewResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		newAt, err := time.Parse(time.RFC3339, input.Body.ScheduledAt)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "scheduled_at must be RFC 3339", map[string]any{"scheduled_at": input.Body.ScheduledAt})
		}
		iv, err := e.Reschedule(ctx, input.ID, newAt)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterviewResponse `json:"body"`
		}{Body: interviewResponse(iv, e.Window(iv))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-interview",
		Method:      http.MethodPost,
		Path:        "/interviews/{id}/complete",
		Summary:     "Complete interview",
		Errors: []int{
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                   `path:"id"`
		Body CompleteInterviewRequest `json:"body"`
	}) (*struct {
		Body InterviewResponse `json:"body"`
	}, error) {
		iv, err := e.Complete(ctx, input.ID, input.Body.OutcomeNotes)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterviewResponse `json:"body"`
		}{Body: interviewResponse(iv, e.Window(iv))}, nil
	})
}

// defaultRecipient fills an empty recipient from the authenticated principal
// so callers see their own deliveries without naming themselves.
func defaultRecipient(ctx context.Context, recipientType, recipientRef string) (string, string) {
	if recipientType != "" || recipientRef != "" {
		return recipientType, recipientRef
	}
	if p, ok := principalFromContext(ctx); ok && p.ActorType != "" {
		return p.ActorType, p.ActorID
	}
	return recipientType, recipientRef
}

func registerNotifications(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "List delivery log entries",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		RecipientType string `query:"recipient_type" enum:"candidate,employer,admin"`
		RecipientRef  string `query:"recipient_ref"`
		Limit         int    `query:"limit" default:"50"`
	}) (*struct {
		Body []DeliveryResponse `json:"body"`
	}, error) {
		input.RecipientType, input.RecipientRef = defaultRecipient(ctx, input.RecipientType, input.RecipientRef)
		if input.RecipientType == "" || input.RecipientRef == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "recipient_type and recipient_ref are required", nil)
		}
		items, err := e.Repo.ListDeliveryLog(ctx, input.RecipientType, input.RecipientRef, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []DeliveryResponse `json:"body"`
		}{Body: mapDeliveries(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unread-notifications-count",
		Method:      http.MethodGet,
		Path:        "/notifications/unread-count",
		Summary:     "Count unread notifications",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		RecipientType string `query:"recipient_type" enum:"candidate,employer,admin"`
		RecipientRef  string `query:"recipient_ref"`
	}) (*struct {
		Body map[string]int `json:"body"`
	}, error) {
		input.RecipientType, input.RecipientRef = defaultRecipient(ctx, input.RecipientType, input.RecipientRef)
		if input.RecipientType == "" || input.RecipientRef == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "recipient_type and recipient_ref are required", nil)
		}
		n, err := e.Repo.CountUnreadDeliveries(ctx, input.RecipientType, input.RecipientRef)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]int `json:"body"`
		}{Body: map[string]int{"unread": n}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-notifications-read",
		Method:      http.MethodPost,
		Path:        "/notifications/mark-read",
		Summary:     "Mark sent notifications as delivered",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body MarkNotificationsReadRequest `json:"body"`
	}) (*struct {
		Body map[string]int64 `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		input.Body.RecipientType, input.Body.RecipientRef = defaultRecipient(ctx, input.Body.RecipientType, input.Body.RecipientRef)
		if input.Body.RecipientType == "" || input.Body.RecipientRef == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "recipient_type and recipient_ref are required", nil)
		}
		n, err := e.Repo.MarkDeliveriesRead(ctx, input.Body.RecipientType, input.Body.RecipientRef)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]int64 `json:"body"`
		}{Body: map[string]int64{"updated": n}}, nil
	})
}
