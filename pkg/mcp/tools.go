package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/remap/internal/engine"
	"github.com/rendis/remap/internal/remap"
	"github.com/rendis/remap/pkg/schema"
)

// handleEvaluate runs a remapper against one input, or against each element
// of inputs.
func (s *RemapServer) handleEvaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("remapper")
	if err != nil {
		return mcp.NewToolResultError("remapper is required"), nil
	}
	remapper, err := schema.ParseDocument([]byte(source))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid remapper: %v", err)), nil
	}

	env, err := parseEnvironment(mcp.ParseStringMap(req, "context", nil))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid context: %v", err)), nil
	}
	if locale := req.GetString("locale", ""); locale != "" {
		env.Locale = locale
	}
	messages, err := parseMessages(mcp.ParseStringMap(req, "messages", nil))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid messages: %v", err)), nil
	}

	request := engine.Request{Remapper: remapper, Env: env, Messages: messages}

	if raw := req.GetString("inputs", ""); raw != "" {
		doc, parseErr := schema.ParseDocument([]byte(raw))
		if parseErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid inputs: %v", parseErr)), nil
		}
		inputs, ok := doc.([]any)
		if !ok {
			return mcp.NewToolResultError("inputs must be a list"), nil
		}
		results, evalErr := s.executor.EvaluateEach(ctx, request, inputs)
		if evalErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", evalErr)), nil
		}
		return marshalResult(map[string]any{"results": results})
	}

	if raw := req.GetString("input", ""); raw != "" {
		if request.Input, err = schema.ParseDocument([]byte(raw)); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid input: %v", err)), nil
		}
	}

	result, evalErr := s.executor.Evaluate(ctx, request)
	if evalErr != nil {
		s.logger.WarnContext(ctx, "remap.evaluate failed", "error", evalErr)
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", evalErr)), nil
	}
	return marshalResult(result)
}

// handleValidate reports the issues of a remapper document.
func (s *RemapServer) handleValidate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("remapper")
	if err != nil {
		return mcp.NewToolResultError("remapper is required"), nil
	}
	remapper, err := schema.ParseDocument([]byte(source))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid remapper: %v", err)), nil
	}

	result := s.executor.Validate(remapper)
	return marshalResult(map[string]any{
		"valid":    result.Valid(),
		"errors":   issuesOrEmpty(result.Errors),
		"warnings": issuesOrEmpty(result.Warnings),
	})
}

type operatorInfo struct {
	Name        string `json:"name"`
	Family      string `json:"family"`
	Description string `json:"description"`
}

// handleOperators lists the operator registry, optionally by family.
func (s *RemapServer) handleOperators(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	family := req.GetString("family", "")

	ops := make([]operatorInfo, 0)
	for _, def := range remap.Definitions() {
		if family != "" && def.Family != family {
			continue
		}
		ops = append(ops, operatorInfo{Name: def.Name, Family: def.Family, Description: def.Description})
	}
	return marshalResult(map[string]any{"operators": ops, "count": len(ops)})
}

// --- Helpers ---

// parseEnvironment decodes the context argument through its JSON tags.
func parseEnvironment(raw map[string]any) (remap.Environment, error) {
	var env remap.Environment
	if raw == nil {
		return env, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return env, err
	}
	err = json.Unmarshal(data, &env)
	return env, err
}

func parseMessages(raw map[string]any) (map[string]string, error) {
	if raw == nil {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for id, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("message %q must be a string", id)
		}
		out[id] = s
	}
	return out, nil
}

func issuesOrEmpty(issues []schema.ValidationIssue) []schema.ValidationIssue {
	if issues == nil {
		return []schema.ValidationIssue{}
	}
	return issues
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
