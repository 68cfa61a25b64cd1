package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"

	app "github.com/solsentry/solsentry/internal/application/analysis"
	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// Server speaks JSON-RPC 2.0 over line-delimited stdin/stdout. Requests are
// handled sequentially in arrival order; stdout writes are serialized so a
// notification can never interleave with a response.
type Server struct {
	svc *app.Service
	in  io.Reader
	out io.Writer
	log *log.Logger

	mu sync.Mutex
}

func New(svc *app.Service, in io.Reader, out io.Writer, logger *log.Logger) *Server {
	return &Server{svc: svc, in: in, out: out, log: logger}
}

// Run reads requests until stdin closes or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.writeError(nil, codeParseError, "Parse error")
			continue
		}
		s.dispatch(ctx, req)
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req jsonrpcRequest) {
	switch req.Method {
	case "initialize":
		s.writeResult(req.ID, initializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      serverInfo{Name: serverName, Version: serverVersion},
		})
	case "notifications/initialized":
		// Client acknowledgement, nothing to answer.
	case "ping":
		s.writeResult(req.ID, struct{}{})
	case "tools/list":
		s.writeResult(req.ID, s.listTools())
	case "tools/call":
		s.handleToolCall(ctx, req)
	case "resources/list":
		s.writeResult(req.ID, s.listResources())
	case "resources/read":
		s.handleResourceRead(req)
	case "prompts/list":
		s.writeResult(req.ID, listPrompts())
	case "prompts/get":
		s.handlePromptGet(req)
	default:
		if req.ID != nil {
			s.writeError(req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
		}
	}
}

func (s *Server) listTools() toolsListResult {
	defs := s.svc.Tools()
	tools := make([]mcpTool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, mcpTool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
		})
	}
	return toolsListResult{Tools: tools}
}

func (s *Server) handleToolCall(ctx context.Context, req jsonrpcRequest) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, codeInvalidParams, "Invalid params")
		return
	}

	out, err := s.callTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.writeResult(req.ID, toolResult{
			Content: []contentBlock{{Type: "text", Text: fmt.Sprintf("Tool execution failed: %v", err)}},
			IsError: true,
		})
		return
	}

	s.writeResult(req.ID, toolResult{
		Content: []contentBlock{{Type: "text", Text: out.Summary}},
	})
	s.notify("notifications/resources/list_changed")
}

// callTool recovers adapter panics so one bad engine response cannot take
// down the transport.
func (s *Server) callTool(ctx context.Context, name string, args map[string]any) (out app.RunOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return s.svc.Run(ctx, app.RunCommand{Tool: name, Arguments: args})
}

func (s *Server) listResources() resourcesListResult {
	summaries := s.svc.Results()
	resources := make([]resource, 0, len(summaries))
	for _, sum := range summaries {
		status := "completed"
		if !sum.Success {
			status = "failed"
		}
		resources = append(resources, resource{
			URI:         "analysis://internal/" + sum.AnalysisID,
			Name:        fmt.Sprintf("%s analysis (%s)", sum.Tool, status),
			Description: "Stored result from " + sum.Tool,
			MimeType:    "application/json",
		})
	}
	return resourcesListResult{Resources: resources}
}

func (s *Server) handleResourceRead(req jsonrpcRequest) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, codeInvalidParams, "Invalid params")
		return
	}

	u, err := url.Parse(params.URI)
	if err != nil || u.Scheme != "analysis" {
		scheme := ""
		if u != nil {
			scheme = u.Scheme
		}
		s.writeError(req.ID, codeInvalidParams, fmt.Sprintf("Unsupported URI scheme: %s", scheme))
		return
	}

	id := strings.TrimPrefix(u.Path, "/")
	res, err := s.svc.Result(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(req.ID, codeInvalidParams, fmt.Sprintf("Analysis result not found: %s", id))
			return
		}
		s.writeError(req.ID, codeInvalidParams, err.Error())
		return
	}

	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		s.writeError(req.ID, codeInvalidParams, err.Error())
		return
	}
	s.writeResult(req.ID, resourcesReadResult{
		Contents: []resourceContent{{URI: params.URI, MimeType: "application/json", Text: string(body)}},
	})
}

const analyzePromptName = "analyze-contract"

func listPrompts() promptsListResult {
	return promptsListResult{Prompts: []prompt{{
		Name:        analyzePromptName,
		Description: "Guide a full security review of a Solidity contract",
		Arguments: []promptArgument{
			{Name: "contract_type", Description: "Kind of contract under review, e.g. token, vault, governance", Required: false},
			{Name: "focus_area", Description: "Vulnerability class to prioritize", Required: false},
		},
	}}}
}

func (s *Server) handlePromptGet(req jsonrpcRequest) {
	var params struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(req.ID, codeInvalidParams, "Invalid params")
		return
	}
	if params.Name != analyzePromptName {
		s.writeError(req.ID, codeInvalidParams, fmt.Sprintf("Unknown prompt: %s", params.Name))
		return
	}

	contractType := params.Arguments["contract_type"]
	if contractType == "" {
		contractType = "generic"
	}
	focus := params.Arguments["focus_area"]
	if focus == "" {
		focus = "all vulnerabilities"
	}

	text := fmt.Sprintf(`Please analyze this %s smart contract with a focus on %s.

Recommended workflow:
1. Run slither-analyze for fast static detection of common issue patterns.
2. Run mythril-analyze for symbolic execution of the flagged paths.
3. If the contract defines echidna properties, run echidna-analyze to fuzz them.
4. Cross-check the findings, rank them by severity, and explain the exploit
   scenario and remediation for each confirmed issue.

Provide the contract source via the contract_code or contract_file argument
of each tool.`, contractType, focus)

	s.writeResult(req.ID, promptGetResult{
		Description: fmt.Sprintf("Security analysis of a %s contract focused on %s", contractType, focus),
		Messages: []promptMessage{{
			Role:    "user",
			Content: contentBlock{Type: "text", Text: text},
		}},
	})
}

func (s *Server) writeResult(id any, result any) {
	s.write(jsonrpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(id any, code int, msg string) {
	s.write(jsonrpcResponse{JSONRPC: "2.0", ID: id, Error: &jsonrpcError{Code: code, Message: msg}})
}

func (s *Server) notify(method string) {
	s.write(jsonrpcNotification{JSONRPC: "2.0", Method: method})
}

func (s *Server) write(msg any) {
	body, err := json.Marshal(msg)
	if err != nil {
		if s.log != nil {
			s.log.Printf("marshal response: %v", err)
		}
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(append(body, '\n')); err != nil && s.log != nil {
		s.log.Printf("write response: %v", err)
	}
}
