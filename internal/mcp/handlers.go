package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ssciwr/faunanet/internal/ctlsocket"
)

// StatusInput is empty — no parameters needed.
type StatusInput struct{}

// StatusOutput mirrors supervisor.Status.
type StatusOutput struct {
	Running         bool   `json:"running"`
	Sleeping        bool   `json:"sleeping"`
	OutputDirectory string `json:"output_directory,omitempty"`
	OldOutput       string `json:"old_output,omitempty"`
	InputDirectory  string `json:"input_directory,omitempty"`
	ModelName       string `json:"model_name,omitempty"`
}

type controlInput struct{}

// ControlOutput is the result of a pause/resume/stop call: whether it
// succeeded, and why not if it didn't.
type ControlOutput struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ChangeAnalyzerInput names the new model and any config overrides.
type ChangeAnalyzerInput struct {
	ModelName        string         `json:"model_name" jsonschema:"model subdirectory to switch to"`
	Pattern          string         `json:"pattern,omitempty" jsonschema:"input file suffix, e.g. .wav"`
	CheckTime        int            `json:"check_time,omitempty" jsonschema:"poll interval in seconds"`
	DeleteRecordings string         `json:"delete_recordings,omitempty" jsonschema:"never or always"`
	Recording        map[string]any `json:"recording,omitempty" jsonschema:"date/lat/lon for a species range predictor"`
}

// CleanupInput is empty — no parameters needed.
type CleanupInput struct{}

// CleanupOutput mirrors supervisor.CleanupReport.
type CleanupOutput struct {
	Reconciled   []string `json:"reconciled,omitempty"`
	Failed       []string `json:"failed,omitempty"`
	FilesWritten int      `json:"files_written"`
	Missing      []string `json:"missing,omitempty"`
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	var out StatusOutput
	if err := s.call("status", nil, &out); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handlePause(ctx context.Context, req *mcpsdk.CallToolRequest, input controlInput) (*mcpsdk.CallToolResult, ControlOutput, error) {
	return s.doControl("pause", nil)
}

func (s *Server) handleResume(ctx context.Context, req *mcpsdk.CallToolRequest, input controlInput) (*mcpsdk.CallToolResult, ControlOutput, error) {
	return s.doControl("go_on", nil)
}

func (s *Server) handleStop(ctx context.Context, req *mcpsdk.CallToolRequest, input controlInput) (*mcpsdk.CallToolResult, ControlOutput, error) {
	return s.doControl("stop", nil)
}

func (s *Server) handleChangeAnalyzer(ctx context.Context, req *mcpsdk.CallToolRequest, input ChangeAnalyzerInput) (*mcpsdk.CallToolResult, ControlOutput, error) {
	return s.doControl("change_analyzer", input)
}

func (s *Server) handleCleanup(ctx context.Context, req *mcpsdk.CallToolRequest, input CleanupInput) (*mcpsdk.CallToolResult, CleanupOutput, error) {
	var out CleanupOutput
	if err := s.call("clean_up", nil, &out); err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, CleanupOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) doControl(op string, args any) (*mcpsdk.CallToolResult, ControlOutput, error) {
	resp, err := ctlsocket.Call(s.socketPath, op, args)
	if err != nil {
		return nil, ControlOutput{}, err
	}
	if resp.Error != "" {
		return &mcpsdk.CallToolResult{IsError: true}, ControlOutput{OK: false, Error: resp.Error}, nil
	}
	return nil, ControlOutput{OK: true}, nil
}

// call issues a control request and decodes its result into out, or
// returns the daemon's reported error.
func (s *Server) call(op string, args any, out any) error {
	resp, err := ctlsocket.Call(s.socketPath, op, args)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	if len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}
