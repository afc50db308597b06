package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenbench/comtrade-bench/internal/tasks"
)

// JSON-RPC 2.0 error codes used by the A2A surface.
const (
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcServerError    = -32000
	rpcTaskNotFound   = -32001
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

func rpcOK(id any, result any) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func rpcFail(id any, code int, msg string, data any) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg, Data: data}}
}

// a2aRPC is the A2A JSON-RPC 2.0 endpoint. Tasks execute synchronously:
// tasks/send grades and returns the finished run in one round trip, so
// tasks/cancel only ever sees terminal runs and streaming is rejected.
func (s *Server) a2aRPC(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, rpcFail(nil, rpcInvalidRequest, "Invalid Request: malformed JSON-RPC envelope", nil))
		return
	}
	if req.JSONRPC != "2.0" {
		c.JSON(http.StatusOK, rpcFail(req.ID, rpcInvalidRequest, "Invalid Request: jsonrpc must be '2.0'", nil))
		return
	}

	switch req.Method {
	case "tasks/send":
		c.JSON(http.StatusOK, s.rpcTasksSend(c, req))
	case "tasks/get":
		c.JSON(http.StatusOK, s.rpcTasksGet(req))
	case "tasks/cancel":
		c.JSON(http.StatusOK, s.rpcTasksCancel(req))
	case "message/send":
		c.JSON(http.StatusOK, s.rpcMessageSend(c, req))
	case "tasks/sendSubscribe":
		c.JSON(http.StatusOK, rpcFail(req.ID, rpcTaskNotFound, "Streaming not implemented",
			gin.H{"info": "Tasks execute synchronously. Use tasks/send instead."}))
	default:
		c.JSON(http.StatusOK, rpcFail(req.ID, rpcMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil))
	}
}

// sendContent is the grading request carried inside tasks/send and
// message/send payloads.
type sendContent struct {
	TaskID       string `json:"task_id"`
	OutputSubdir string `json:"purple_output_subdir"`
	OutputDir    string `json:"output_dir"`
}

func (s *Server) rpcTasksSend(c *gin.Context, req rpcRequest) rpcResponse {
	var params struct {
		Task struct {
			Input struct {
				Content json.RawMessage `json:"content"`
			} `json:"input"`
		} `json:"task"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpcFail(req.ID, rpcInvalidParams, "Invalid params: expected task.input.content", nil)
	}

	content, err := decodeSendContent(params.Task.Input.Content)
	if err != nil {
		return rpcFail(req.ID, rpcInvalidParams, err.Error(), nil)
	}
	return s.gradeAsRPCTask(c, req.ID, content)
}

func (s *Server) rpcMessageSend(c *gin.Context, req rpcRequest) rpcResponse {
	var params struct {
		Message struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"message"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || len(params.Message.Parts) == 0 {
		return rpcFail(req.ID, rpcInvalidParams, "Invalid params: message must have parts", nil)
	}

	content, err := decodeSendContent(json.RawMessage(params.Message.Parts[0].Text))
	if err != nil {
		return rpcFail(req.ID, rpcInvalidParams, err.Error(), nil)
	}
	return s.gradeAsRPCTask(c, req.ID, content)
}

func decodeSendContent(raw json.RawMessage) (sendContent, error) {
	var content sendContent
	if len(raw) == 0 {
		return content, fmt.Errorf("Invalid params: task_id is required in content")
	}
	// Content may itself be a JSON-encoded string.
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		raw = json.RawMessage(asString)
	}
	if err := json.Unmarshal(raw, &content); err != nil {
		return content, fmt.Errorf("Invalid params: content must be a valid JSON object")
	}
	if content.TaskID == "" {
		return content, fmt.Errorf("Invalid params: task_id is required in content")
	}
	return content, nil
}

// gradeAsRPCTask runs one grading pass and records it as an A2A task in the
// run store so tasks/get can replay the result.
func (s *Server) gradeAsRPCTask(c *gin.Context, reqID any, content sendContent) rpcResponse {
	outputDir := content.OutputDir
	if outputDir == "" && content.OutputSubdir != "" {
		outputDir = s.grader.OutputDirFor(content.OutputSubdir)
	}

	run := s.store.Create(content.TaskID, outputDir)
	report, err := s.grader.Grade(c.Request.Context(), content.TaskID, outputDir)
	if err != nil {
		run, _ = s.store.Fail(run.ID, err)
		return rpcFail(reqID, rpcServerError, fmt.Sprintf("Assessment failed: %v", err), gin.H{"task_id": run.ID})
	}
	run, _ = s.store.Complete(run.ID, report)
	return rpcOK(reqID, gin.H{"task": runPayload(run)})
}

func (s *Server) rpcTasksGet(req rpcRequest) rpcResponse {
	id, resp := s.runFromParams(req)
	if resp != nil {
		return *resp
	}
	run, err := s.store.Get(id)
	if err != nil {
		return rpcFail(req.ID, rpcTaskNotFound, "Task not found", gin.H{"task_id": id})
	}
	return rpcOK(req.ID, gin.H{"task": runPayload(run)})
}

func (s *Server) rpcTasksCancel(req rpcRequest) rpcResponse {
	id, resp := s.runFromParams(req)
	if resp != nil {
		return *resp
	}
	run, err := s.store.Get(id)
	if err != nil {
		return rpcFail(req.ID, rpcTaskNotFound, "Task not found", gin.H{"task_id": id})
	}
	if !run.Terminal() {
		run, _ = s.store.SetStatus(id, tasks.RunCanceled)
	}
	return rpcOK(req.ID, gin.H{"task": runPayload(run)})
}

func (s *Server) runFromParams(req rpcRequest) (string, *rpcResponse) {
	var params struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.TaskID == "" {
		resp := rpcFail(req.ID, rpcInvalidParams, "Invalid params: task_id is required", nil)
		return "", &resp
	}
	return params.TaskID, nil
}

// runPayload shapes a stored run as an A2A task object.
func runPayload(run *tasks.Run) gin.H {
	payload := gin.H{
		"id":     run.ID,
		"status": string(run.Status),
	}
	if run.Report != nil {
		payload["output"] = gin.H{"type": "object", "content": run.Report}
	}
	if run.Error != "" {
		payload["error"] = gin.H{"message": run.Error}
	}
	return payload
}
