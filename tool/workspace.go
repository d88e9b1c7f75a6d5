package tool

import (
	"strings"

	"github.com/hupe1980/isokit/core"
	"github.com/hupe1980/isokit/workspace"
)

// WorkspaceTools returns the built-in file CRUD tools bound to one iso's
// sandboxed workspace. Read and list are parallel-safe; mutations are
// serialized by the loop in call order. Sandbox escapes surface in the
// ToolResult error so the model can correct itself.
func WorkspaceTools(ws *workspace.Workspace) []Tool {
	pathProp := map[string]any{
		"type":        "string",
		"description": "Path relative to the workspace root.",
	}
	contentProp := map[string]any{
		"type":        "string",
		"description": "Full file content.",
	}

	createTool := NewFunctionTool(
		"workspace_create",
		"Create a new file in the workspace. Fails if the file already exists.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    pathProp,
				"content": contentProp,
			},
			"required": []string{"path", "content"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			path, _ := args["path"].(string)
			content, _ := args["content"].(string)
			if err := ws.Create(path, content); err != nil {
				return nil, err
			}
			return "created " + path, nil
		},
	)

	readTool := NewFunctionTool(
		"workspace_read",
		"Read a file from the workspace.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": pathProp,
			},
			"required": []string{"path"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			path, _ := args["path"].(string)
			return ws.Read(path)
		},
		func(o *FunctionToolOptions) { o.ParallelSafe = true },
	)

	updateTool := NewFunctionTool(
		"workspace_update",
		"Overwrite an existing file in the workspace.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path":    pathProp,
				"content": contentProp,
			},
			"required": []string{"path", "content"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			path, _ := args["path"].(string)
			content, _ := args["content"].(string)
			if err := ws.Update(path, content); err != nil {
				return nil, err
			}
			return "updated " + path, nil
		},
	)

	deleteTool := NewFunctionTool(
		"workspace_delete",
		"Delete a file from the workspace.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": pathProp,
			},
			"required": []string{"path"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			path, _ := args["path"].(string)
			if err := ws.Delete(path); err != nil {
				return nil, err
			}
			return "deleted " + path, nil
		},
	)

	listTool := NewFunctionTool(
		"workspace_list",
		"List workspace directory contents up to two levels deep.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"dir": map[string]any{
					"type":        "string",
					"description": "Directory relative to the workspace root. Defaults to the root.",
				},
			},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			dir, _ := args["dir"].(string)
			entries, err := ws.List(dir, 2)
			if err != nil {
				return nil, err
			}
			if len(entries) == 0 {
				return "workspace is empty", nil
			}
			return strings.Join(entries, "\n"), nil
		},
		func(o *FunctionToolOptions) { o.ParallelSafe = true },
	)

	return []Tool{createTool, readTool, updateTool, deleteTool, listTool}
}
