package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenbench/comtrade-bench/internal/domain"
	"github.com/greenbench/comtrade-bench/internal/tasks"
)

// agentCardPayload mirrors the A2A agent-card discovery document.
type agentCardPayload struct {
	Name               string            `json:"name"`
	Version            string            `json:"version"`
	Description        string            `json:"description"`
	Endpoints          map[string]string `json:"endpoints"`
	Capabilities       map[string]bool   `json:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes"`
	DefaultOutputModes []string          `json:"defaultOutputModes"`
	Skills             []agentSkill      `json:"skills"`
}

type agentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) agentCard(c *gin.Context) {
	c.JSON(http.StatusOK, agentCardPayload{
		Name:        "green-comtrade-bench",
		Version:     Version,
		Description: "Benchmark judge for paginated Comtrade retrieval tasks",
		Endpoints: map[string]string{
			"rpc":    "/a2a/rpc",
			"assess": "/assess",
			"health": "/healthz",
		},
		Capabilities:       map[string]bool{"streaming": false, "pushNotifications": false},
		DefaultInputModes:  []string{"application/json"},
		DefaultOutputModes: []string{"application/json"},
		Skills: []agentSkill{{
			ID:          "comtrade.benchmark.eval",
			Name:        "evaluate",
			Description: "Grade an agent's retrieval artifact for one benchmark task",
			Tags:        []string{"benchmark", "evaluation", "a2a"},
		}},
	})
}

func (s *Server) listTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": s.catalog.List()})
}

// assessRequest is the direct grading request. OutputSubdir overrides the
// task-id directory name under the output root; OutputDir is an absolute
// artifact path and wins over both.
type assessRequest struct {
	TaskID       string `json:"task_id" binding:"required"`
	OutputSubdir string `json:"purple_output_subdir"`
	OutputDir    string `json:"output_dir"`
}

func (s *Server) assess(c *gin.Context) {
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.runAssess(c, req)
	if err != nil {
		status, msg := assessErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) runAssess(c *gin.Context, req assessRequest) (*domain.Report, error) {
	outputDir := req.OutputDir
	if outputDir == "" && req.OutputSubdir != "" {
		outputDir = s.grader.OutputDirFor(req.OutputSubdir)
	}

	s.log.WithField("task_id", req.TaskID).Info("assess start")
	report, err := s.grader.Grade(c.Request.Context(), req.TaskID, outputDir)
	if err != nil {
		s.log.WithField("task_id", req.TaskID).WithError(err).Error("assess failed")
		return nil, err
	}
	s.log.WithField("task_id", req.TaskID).WithField("total", report.ScoreTotal).Info("assess done")
	return report, nil
}

// assessErrorStatus maps grading failures to HTTP statuses: unknown task is a
// 404, a blown scoring or I/O deadline is a 504, everything else a 500.
func assessErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownTask):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrScoringTimeout), errors.Is(err, domain.ErrIODeadline):
		return http.StatusGatewayTimeout, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (s *Server) listRuns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"runs": s.store.List()})
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.store.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, tasks.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}
