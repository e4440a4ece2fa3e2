package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/groupmesh/core"
)

// SessionManagerTool provides operations for managing session state through
// ToolContext.
//
// It demonstrates how tools use ToolContext for state, memory, and artifact
// access, and gives model participants a single entry point for interacting
// with the conversation infrastructure.
type SessionManagerTool struct {
	name        string
	description string
}

// NewSessionManagerTool creates a new session management tool.
//
// This tool provides operations for:
//   - Reading and writing session state
//   - Memory management
//   - Artifact handling
//   - Transcript inspection
func NewSessionManagerTool() *SessionManagerTool {
	return &SessionManagerTool{
		name: "session_manager",
		description: "Manages session state, memory, and artifacts. " +
			"Supports operations: get_state, set_state, save_artifact, load_artifact, " +
			"list_artifacts, search_memory, store_memory, get_transcript.",
	}
}

// Name returns the tool identifier.
func (t *SessionManagerTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *SessionManagerTool) Description() string {
	return t.description
}

// Parameters returns the JSON schema for tool parameters.
func (t *SessionManagerTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{
				"type": "string",
				"enum": []string{
					"get_state", "set_state", "save_artifact", "load_artifact",
					"list_artifacts", "search_memory", "store_memory", "get_transcript",
				},
				"description": "The session management operation to perform",
			},
			"key": map[string]interface{}{
				"type":        "string",
				"description": "State key for get_state/set_state operations",
			},
			"value": map[string]interface{}{
				"description": "Value for set_state operations (any type)",
			},
			"artifact_id": map[string]interface{}{
				"type":        "string",
				"description": "Artifact identifier for artifact operations",
			},
			"data": map[string]interface{}{
				"type":        "string",
				"description": "Data payload for save_artifact operation",
			},
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query for memory operations",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Content to store in memory",
			},
			"metadata": map[string]interface{}{
				"type":        "object",
				"description": "Metadata for memory storage",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Limit for search operations (default: 10)",
				"default":     10,
			},
		},
		"required": []string{"operation"},
	}
}

// Call implements the Tool interface with structured arguments.
func (t *SessionManagerTool) Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error) {
	operation, ok := args["operation"].(string)
	if !ok {
		return nil, fmt.Errorf("operation parameter is required")
	}

	switch operation {
	case "get_state":
		return t.handleGetState(args, toolCtx)
	case "set_state":
		return t.handleSetState(args, toolCtx)
	case "save_artifact":
		return t.handleSaveArtifact(args, toolCtx)
	case "load_artifact":
		return t.handleLoadArtifact(args, toolCtx)
	case "list_artifacts":
		return t.handleListArtifacts(toolCtx)
	case "search_memory":
		return t.handleSearchMemory(args, toolCtx)
	case "store_memory":
		return t.handleStoreMemory(args, toolCtx)
	case "get_transcript":
		return t.handleGetTranscript(toolCtx)
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

// handleGetState retrieves a value from session state.
func (t *SessionManagerTool) handleGetState(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	key, ok := args["key"].(string)
	if !ok {
		return nil, fmt.Errorf("key parameter is required for get_state operation")
	}

	value, exists := toolCtx.GetState(key)
	if !exists {
		return map[string]interface{}{
			"key":    key,
			"exists": false,
			"value":  nil,
		}, nil
	}

	return map[string]interface{}{
		"key":    key,
		"exists": true,
		"value":  value,
	}, nil
}

// handleSetState sets a value in session state.
func (t *SessionManagerTool) handleSetState(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	key, ok := args["key"].(string)
	if !ok {
		return nil, fmt.Errorf("key parameter is required for set_state operation")
	}

	value := args["value"] // Can be any type

	toolCtx.SetState(key, value)

	return map[string]interface{}{
		"key":     key,
		"value":   value,
		"success": true,
		"message": fmt.Sprintf("State key '%s' set successfully", key),
	}, nil
}

// handleSaveArtifact saves data as an artifact.
func (t *SessionManagerTool) handleSaveArtifact(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	artifactID, ok := args["artifact_id"].(string)
	if !ok {
		return nil, fmt.Errorf("artifact_id parameter is required for save_artifact operation")
	}

	dataStr, ok := args["data"].(string)
	if !ok {
		return nil, fmt.Errorf("data parameter is required for save_artifact operation")
	}

	data := []byte(dataStr)

	if err := toolCtx.SaveArtifact(artifactID, data); err != nil {
		return nil, fmt.Errorf("failed to save artifact: %w", err)
	}

	return map[string]interface{}{
		"artifact_id": artifactID,
		"size":        len(data),
		"success":     true,
		"message":     fmt.Sprintf("Artifact '%s' saved successfully", artifactID),
	}, nil
}

// handleLoadArtifact loads data from an artifact.
func (t *SessionManagerTool) handleLoadArtifact(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	artifactID, ok := args["artifact_id"].(string)
	if !ok {
		return nil, fmt.Errorf("artifact_id parameter is required for load_artifact operation")
	}

	data, err := toolCtx.LoadArtifact(artifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}

	return map[string]interface{}{
		"artifact_id": artifactID,
		"data":        string(data),
		"size":        len(data),
		"success":     true,
	}, nil
}

// handleListArtifacts lists all artifacts in the session.
func (t *SessionManagerTool) handleListArtifacts(toolCtx *core.ToolContext) (interface{}, error) {
	artifacts, err := toolCtx.ListArtifacts()
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	return map[string]interface{}{
		"artifacts": artifacts,
		"count":     len(artifacts),
		"success":   true,
	}, nil
}

// handleSearchMemory searches for relevant memories.
func (t *SessionManagerTool) handleSearchMemory(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	query, ok := args["query"].(string)
	if !ok {
		return nil, fmt.Errorf("query parameter is required for search_memory operation")
	}

	limit := 10
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	results, err := toolCtx.SearchMemory(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search memory: %w", err)
	}

	return map[string]interface{}{
		"query":   query,
		"limit":   limit,
		"count":   len(results),
		"results": results,
		"success": true,
	}, nil
}

// handleStoreMemory stores content in memory.
func (t *SessionManagerTool) handleStoreMemory(args map[string]interface{}, toolCtx *core.ToolContext) (interface{}, error) {
	content, ok := args["content"].(string)
	if !ok {
		return nil, fmt.Errorf("content parameter is required for store_memory operation")
	}

	metadata := make(map[string]interface{})
	if m, ok := args["metadata"].(map[string]interface{}); ok {
		metadata = m
	}

	if err := toolCtx.StoreMemory(content, metadata); err != nil {
		return nil, fmt.Errorf("failed to store memory: %w", err)
	}

	return map[string]interface{}{
		"content":  content,
		"metadata": metadata,
		"success":  true,
		"message":  "Memory stored successfully",
	}, nil
}

// handleGetTranscript summarizes the conversation transcript.
func (t *SessionManagerTool) handleGetTranscript(toolCtx *core.ToolContext) (interface{}, error) {
	transcript := toolCtx.Transcript()

	messages := make([]map[string]interface{}, transcript.Len())
	for i, msg := range transcript.Messages() {
		messages[i] = map[string]interface{}{
			"id":        msg.ID,
			"speaker":   msg.Speaker,
			"role":      msg.Role,
			"timestamp": msg.Timestamp,
		}

		var contentSummary []string
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case core.TextPart:
				preview := p.Text
				if len(preview) > 100 {
					preview = preview[:100] + "..."
				}
				contentSummary = append(contentSummary, fmt.Sprintf("text: %s", preview))
			case core.ToolCallPart:
				contentSummary = append(contentSummary, fmt.Sprintf("tool_call: %s", p.ToolCall.Name))
			case core.ToolResponsePart:
				contentSummary = append(contentSummary, fmt.Sprintf("tool_response: %s", p.ToolResponse.Name))
			default:
				contentSummary = append(contentSummary, "other")
			}
		}
		if len(contentSummary) > 0 {
			messages[i]["content_summary"] = strings.Join(contentSummary, ", ")
		}
	}

	return map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
		"success":  true,
	}, nil
}
