// Package idmappingtest provides a scripted in-process ID mapping service for tests.
package idmappingtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Server fakes the submit, status and results endpoints. Failure counters are
// consumed one request at a time, so SubmitFailures = 2 fails the first two
// submissions and accepts the third.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// Names maps accession to primary gene name. Accessions without an entry
	// are left out of the results.
	Names map[string]string
	// PollsBeforeFinish is how many status calls answer RUNNING per job.
	PollsBeforeFinish int
	// RedirectOnFinish answers a finished status call with a 303 instead of JSON.
	RedirectOnFinish bool
	// ExtraResultLines are appended verbatim to every results body.
	ExtraResultLines []string

	SubmitFailures int
	StatusFailures int
	ResultFailures int
	// FailureCode is the HTTP status used for scripted failures. Defaults to 503.
	FailureCode int

	jobs     map[string][]string
	polls    map[string]int
	submits  int
	statuses int
	fetches  int
}

// NewServer starts a fake service. Close it when done.
func NewServer(names map[string]string) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		Names:       names,
		FailureCode: http.StatusServiceUnavailable,
		jobs:        make(map[string][]string),
		polls:       make(map[string]int),
	}

	router := gin.New()
	router.POST("/run", s.handleRun)
	router.GET("/status/:id", s.handleStatus)
	router.GET("/uniprotkb/results/stream/:id", s.handleResults)

	s.Server = httptest.NewServer(router)
	return s
}

// Submits returns how many submit requests reached the server
func (s *Server) Submits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submits
}

// StatusCalls returns how many status requests reached the server
func (s *Server) StatusCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses
}

// Fetches returns how many results requests reached the server
func (s *Server) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// Jobs returns the accessions of every submitted job, in no particular order
func (s *Server) Jobs() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, 0, len(s.jobs))
	for _, accs := range s.jobs {
		out = append(out, append([]string(nil), accs...))
	}
	return out
}

func (s *Server) handleRun(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits++

	if s.SubmitFailures > 0 {
		s.SubmitFailures--
		c.String(s.FailureCode, "scripted failure")
		return
	}

	ids := c.PostForm("ids")
	if ids == "" || c.PostForm("from") == "" || c.PostForm("to") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"messages": []string{"ids, from and to are required"}})
		return
	}

	jobID := uuid.NewString()
	s.jobs[jobID] = strings.Split(ids, ",")
	c.JSON(http.StatusOK, gin.H{"jobId": jobID})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses++

	if s.StatusFailures > 0 {
		s.StatusFailures--
		c.String(s.FailureCode, "scripted failure")
		return
	}

	id := c.Param("id")
	if _, ok := s.jobs[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"messages": []string{"unknown job"}})
		return
	}

	s.polls[id]++
	if s.polls[id] <= s.PollsBeforeFinish {
		c.JSON(http.StatusOK, gin.H{"jobStatus": "RUNNING"})
		return
	}
	if s.RedirectOnFinish {
		c.Redirect(http.StatusSeeOther, "/uniprotkb/results/"+id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobStatus": "FINISHED"})
}

func (s *Server) handleResults(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++

	if s.ResultFailures > 0 {
		s.ResultFailures--
		c.String(s.FailureCode, "scripted failure")
		return
	}

	accs, ok := s.jobs[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"messages": []string{"unknown job"}})
		return
	}

	sorted := append([]string(nil), accs...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString("From\tGene Names (primary)\n")
	for _, acc := range sorted {
		if name, ok := s.Names[acc]; ok {
			fmt.Fprintf(&b, "%s\t%s\n", acc, name)
		}
	}
	for _, line := range s.ExtraResultLines {
		b.WriteString(line + "\n")
	}
	c.Data(http.StatusOK, "text/plain; format=tsv", []byte(b.String()))
}
