package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/solsentry/solsentry/internal/application/analysis"
	domain "github.com/solsentry/solsentry/internal/domain/analysis"
	"github.com/solsentry/solsentry/internal/middleware"
)

const Version = "0.1.0"

type Router struct {
	svc *appanalysis.Service
}

func NewRouter(svc *appanalysis.Service, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Get("/", r.wrap(r.handleRoot))
	mux.Get("/tools", r.wrap(r.handleTools))
	mux.Post("/analyze", r.wrap(r.handleAnalyze))
	mux.Post("/analyze/stream", r.handleAnalyzeStream)
	mux.Post("/analyze/batch", r.wrap(r.handleBatch))
	mux.Post("/analyze/batch/stream", r.handleBatchStream)
	mux.Get("/results", r.wrap(r.handleListResults))
	mux.Get("/results/{id}", r.wrap(r.handleGetResult))
	mux.Get("/results/{id}/score", r.wrap(r.handleScore))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps domain errors onto status codes. Engine failures are data, not
// transport faults, so only request rejections and store misses end up here.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrUnknownTool), errors.Is(err, domain.ErrValidation):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

type analyzeRequest struct {
	ContractCode string         `json:"contract_code,omitempty"`
	ContractFile string         `json:"contract_file,omitempty"`
	Tool         string         `json:"tool"`
	Options      map[string]any `json:"options,omitempty"`
}

// arguments merges the contract source into the per-tool options the way the
// adapters expect them.
func (a analyzeRequest) arguments(options map[string]any) map[string]any {
	args := make(map[string]any, len(options)+2)
	for k, v := range options {
		args[k] = v
	}
	if a.ContractCode != "" {
		args["contract_code"] = a.ContractCode
	}
	if a.ContractFile != "" {
		args["contract_file"] = a.ContractFile
	}
	return args
}

func decodeBody(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// GET /
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, map[string]any{
		"message": "Smart Contract Vulnerability Analyzer HTTP Server",
		"version": Version,
	})
}

// GET /tools
func (r *Router) handleTools(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, map[string]any{"tools": r.svc.Tools()})
}

// POST /analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeRequest
	if err := decodeBody(req, &body); err != nil {
		return err
	}

	out, err := r.svc.Run(req.Context(), appanalysis.RunCommand{
		Tool:      body.Tool,
		Arguments: body.arguments(body.Options),
	})
	if err != nil {
		return err
	}
	middleware.IncrementAnalyses()

	status := "completed"
	if !out.Result.Success {
		status = "failed"
		middleware.IncrementAnalysesFailed()
	}
	return writeJSON(w, map[string]any{
		"analysis_id": out.AnalysisID,
		"tool":        body.Tool,
		"status":      status,
		"result":      out.Result,
	})
}

type batchRequest struct {
	ContractCode string                    `json:"contract_code,omitempty"`
	ContractFile string                    `json:"contract_file,omitempty"`
	Tools        []string                  `json:"tools"`
	Options      map[string]map[string]any `json:"options,omitempty"`
}

func (b batchRequest) tools() []string {
	if len(b.Tools) == 0 {
		return []string{domain.ToolSlither, domain.ToolMythril}
	}
	return b.Tools
}

// POST /analyze/batch — each tool runs in the caller-specified order; one
// tool's failure never aborts the rest.
func (r *Router) handleBatch(w http.ResponseWriter, req *http.Request) error {
	var body batchRequest
	if err := decodeBody(req, &body); err != nil {
		return err
	}
	src := analyzeRequest{ContractCode: body.ContractCode, ContractFile: body.ContractFile}

	results := make(map[string]any)
	for _, tool := range body.tools() {
		out, err := r.svc.Run(req.Context(), appanalysis.RunCommand{
			Tool:      tool,
			Arguments: src.arguments(body.Options[tool]),
		})
		if err != nil {
			results[tool] = map[string]any{"error": err.Error()}
			continue
		}
		middleware.IncrementAnalyses()
		status := "completed"
		if !out.Result.Success {
			status = "failed"
			middleware.IncrementAnalysesFailed()
		}
		results[tool] = map[string]any{
			"analysis_id": out.AnalysisID,
			"status":      status,
			"result":      out.Result,
		}
	}
	return writeJSON(w, map[string]any{"results": results})
}

// GET /results
func (r *Router) handleListResults(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, map[string]any{"results": r.svc.Results()})
}

// GET /results/{id}
func (r *Router) handleGetResult(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	res, err := r.svc.Result(id)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{
		"analysis_id": id,
		"result":      res,
	})
}

// GET /results/{id}/score — severity is derived, never stored, so it is
// recomputed from the envelope on every read.
func (r *Router) handleScore(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	score, res, err := r.svc.ScoreByID(id)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{
		"analysis_id":    id,
		"tool":           res.Tool,
		"severity_score": score,
	})
}
