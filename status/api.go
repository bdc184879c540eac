package status

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/PowerDNS/eixdb/eix"
	"github.com/PowerDNS/eixdb/index"
	"github.com/PowerDNS/eixdb/index/header"
)

// maxListResults limits the number of packages in a prefix listing
const maxListResults = 1000

// PackageSummary is a package in a prefix listing
type PackageSummary struct {
	Name      string   `json:"name"`
	Versions  []string `json:"versions"`
	Installed bool     `json:"installed"`
	Masked    bool     `json:"masked"`
}

// PackageList is the response to a prefix listing
type PackageList struct {
	Prefix    string           `json:"prefix"`
	Packages  []PackageSummary `json:"packages"`
	Truncated bool             `json:"truncated"`
}

// errStopWalk ends a listing early
var errStopWalk = errors.New("stop walk")

// apiHandler serves:
//
//	/meta                        the last import
//	/packages/<category>/<name>  a single package
//	/packages/<prefix>           packages whose name starts with prefix
func (s *Server) apiHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/meta", s.limited(func(w http.ResponseWriter, r *http.Request) (int, any) {
		m, err := s.ix.Meta()
		if err != nil {
			return indexErrorCode(err), err
		}
		return http.StatusOK, m
	}))
	mux.HandleFunc("/packages/", s.limited(func(w http.ResponseWriter, r *http.Request) (int, any) {
		name := strings.TrimPrefix(r.URL.Path, "/packages/")
		if cat, pkg, ok := strings.Cut(name, "/"); ok && cat != "" && pkg != "" && !strings.Contains(pkg, "/") {
			p, _, err := s.ix.Get(name)
			if err != nil {
				return indexErrorCode(err), err
			}
			return http.StatusOK, p
		}
		list, err := s.listPackages(name)
		if err != nil {
			return indexErrorCode(err), err
		}
		return http.StatusOK, list
	}))
	return mux
}

func (s *Server) listPackages(prefix string) (PackageList, error) {
	list := PackageList{
		Prefix:   prefix,
		Packages: []PackageSummary{},
	}
	err := s.ix.Walk(prefix, func(p *eix.Package, h header.Header) error {
		if len(list.Packages) >= maxListResults {
			list.Truncated = true
			return errStopWalk
		}
		list.Packages = append(list.Packages, PackageSummary{
			Name: p.FullName(),
			Versions: lo.Map(p.Versions, func(v *eix.Version, _ int) string {
				return v.VersionString
			}),
			Installed: h.Flags&header.FlagInstalled != 0,
			Masked:    h.Flags&header.FlagMasked != 0,
		})
		return nil
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return list, err
	}
	return list, nil
}

// apiFunc returns a status code and a value to encode as JSON. An error
// value is returned as {"error": "..."}.
type apiFunc func(w http.ResponseWriter, r *http.Request) (int, any)

// limited wraps an apiFunc with the concurrency limit, metrics and JSON
// encoding.
func (s *Server) limited(fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		code, v := s.serveLimited(fn, w, r)
		if err, ok := v.(error); ok {
			if code >= 500 {
				s.l.WithError(err).WithField("path", r.URL.Path).Error("API error")
			}
			v = map[string]string{"error": err.Error()}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)

		metricAPIRequests.WithLabelValues(strconv.Itoa(code)).Inc()
		metricAPIDuration.Observe(time.Since(t0).Seconds())
	}
}

func (s *Server) serveLimited(fn apiFunc, w http.ResponseWriter, r *http.Request) (int, any) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return http.StatusMethodNotAllowed, errors.New("method not allowed")
	}
	token, err := s.limit.Acquire(r.Context())
	if err != nil {
		return http.StatusServiceUnavailable, errors.Wrap(err, "too many requests")
	}
	defer token.Release()
	return fn(w, r)
}

func indexErrorCode(err error) int {
	switch {
	case errors.Is(err, index.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, index.ErrNoIndex):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
