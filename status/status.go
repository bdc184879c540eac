package status

import (
	"context"
	"time"

	"github.com/PowerDNS/simpleblob"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/PowerDNS/eixdb/config"
	"github.com/PowerDNS/eixdb/index"
	"github.com/PowerDNS/eixdb/status/healthtracker"
	"github.com/PowerDNS/eixdb/status/starttracker"
	"github.com/PowerDNS/eixdb/utils"
	"github.com/PowerDNS/eixdb/utils/climit"
)

// Options are the optional collaborators of a Server
type Options struct {
	Storage simpleblob.Interface         // shown on the status page
	Reload  *healthtracker.HealthTracker // reload failure streak
	Startup *starttracker.StartTracker
}

// Server serves the status page, the package API and metrics.
type Server struct {
	c     config.Config
	ix    *index.Index
	opt   Options
	limit *climit.ConcurrencyLimit
	l     logrus.FieldLogger

	mu        utils.MonitoredMutex
	lastCheck Check
}

// Check is the result of the last reload check
type Check struct {
	Time    time.Time
	Source  string
	Changed bool
	Err     error
}

// New creates a Server for the given index.
func New(c config.Config, ix *index.Index, opt Options, l logrus.FieldLogger) *Server {
	l = l.WithField("component", "http")
	s := &Server{
		c:     c,
		ix:    ix,
		opt:   opt,
		limit: climit.New("api", c.HTTP.MaxConcurrentRequests, l),
		l:     l,
	}
	s.mu.Logger = l
	s.mu.Name = "status"
	return s
}

// SetLastCheck records the result of a reload check
func (s *Server) SetLastCheck(c Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCheck = c
}

// LastCheck returns the result of the last reload check
func (s *Server) LastCheck() Check {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCheck
}

// ListBlobs lists the cache files in storage
func (s *Server) ListBlobs(ctx context.Context) (simpleblob.BlobList, error) {
	if s.opt.Storage == nil {
		return nil, errors.New("no storage configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.opt.Storage.List(ctx, "")
}
