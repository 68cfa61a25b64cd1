package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	appanalysis "github.com/solsentry/solsentry/internal/application/analysis"
	"github.com/solsentry/solsentry/internal/middleware"
)

// Server-Sent-Events streaming: each event is one JSON object of the form
// {type, data} on its own "data:" line. Once the stream has started, errors
// travel inside the stream as error events, never as HTTP status codes.

func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

func writeEvent(w http.ResponseWriter, f http.Flusher, typ string, data any) {
	payload, err := json.Marshal(map[string]any{"type": typ, "data": data})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	f.Flush()
}

// POST /analyze/stream
func (r *Router) handleAnalyzeStream(w http.ResponseWriter, req *http.Request) {
	var body analyzeRequest
	if err := decodeBody(req, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Unknown tool is rejected before the stream opens, like the plain
	// /analyze endpoint.
	if err := r.svc.Known(body.Tool); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	sseHeaders(w)

	writeEvent(w, flusher, "progress", map[string]any{"status": "starting", "tool": body.Tool})
	writeEvent(w, flusher, "progress", map[string]any{
		"status":  "running",
		"message": fmt.Sprintf("Running %s analysis...", body.Tool),
	})

	out, err := r.svc.Run(req.Context(), appanalysis.RunCommand{
		Tool:      body.Tool,
		Arguments: body.arguments(body.Options),
	})
	if err != nil {
		writeEvent(w, flusher, "error", map[string]any{"error": err.Error()})
		return
	}
	middleware.IncrementAnalyses()
	if !out.Result.Success {
		middleware.IncrementAnalysesFailed()
	}

	writeEvent(w, flusher, "result", map[string]any{
		"analysis_id": out.AnalysisID,
		"result":      out.Result,
	})
	writeEvent(w, flusher, "complete", map[string]any{
		"analysis_id": out.AnalysisID,
		"status":      "completed",
	})
}

// POST /analyze/batch/stream — per-tool progress and result events, then one
// complete event carrying the aggregate results map. Unknown tools produce a
// tool_error event and the batch keeps going.
func (r *Router) handleBatchStream(w http.ResponseWriter, req *http.Request) {
	var body batchRequest
	if err := decodeBody(req, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	sseHeaders(w)

	tools := body.tools()
	src := analyzeRequest{ContractCode: body.ContractCode, ContractFile: body.ContractFile}

	writeEvent(w, flusher, "progress", map[string]any{
		"status":      "starting",
		"total_tools": len(tools),
	})

	results := make(map[string]any)
	for i, tool := range tools {
		writeEvent(w, flusher, "progress", map[string]any{
			"status":       "running",
			"current_tool": tool,
			"progress":     i + 1,
			"total":        len(tools),
		})

		out, err := r.svc.Run(req.Context(), appanalysis.RunCommand{
			Tool:      tool,
			Arguments: src.arguments(body.Options[tool]),
		})
		if err != nil {
			results[tool] = map[string]any{"error": err.Error()}
			writeEvent(w, flusher, "tool_error", map[string]any{"tool": tool, "error": err.Error()})
			continue
		}
		middleware.IncrementAnalyses()
		status := "completed"
		if !out.Result.Success {
			status = "failed"
			middleware.IncrementAnalysesFailed()
		}
		toolResult := map[string]any{
			"analysis_id": out.AnalysisID,
			"status":      status,
			"result":      out.Result,
		}
		results[tool] = toolResult
		writeEvent(w, flusher, "tool_result", map[string]any{
			"tool":        tool,
			"analysis_id": out.AnalysisID,
			"status":      status,
			"result":      out.Result,
		})
	}

	writeEvent(w, flusher, "complete", map[string]any{"results": results})
}
