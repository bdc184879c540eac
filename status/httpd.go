package status

import (
	"context"
	"fmt"
	htmltemplate "html/template"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/PowerDNS/simpleblob"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PowerDNS/eixdb/index"
	"github.com/PowerDNS/eixdb/status/healthtracker"
)

// shutdownTimeout is the time allowed for active requests on shutdown
const shutdownTimeout = 5 * time.Second

// Handler returns the HTTP handler with all endpoints. The /healthz
// endpoint is registered on http.DefaultServeMux by go-healthz and is
// passed through.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", http.DefaultServeMux)
	mux.Handle("/api/", http.StripPrefix("/api", s.apiHandler()))
	mux.Handle("/", &Page{s: s})
	return mux
}

// Run runs the HTTP server until the context is canceled. It returns
// immediately if no address is configured.
func (s *Server) Run(ctx context.Context) error {
	addr := s.c.HTTP.Address
	if addr == "" {
		s.l.Info("HTTP server disabled")
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on the given listener until the context is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.l.WithField("address", ln.Addr().String()).Info("HTTP server enabled")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.l.WithError(err).Warn("HTTP server shutdown")
	}
	if err := <-errCh; err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Page is the HTML status page
type Page struct {
	s *Server
}

const statusTemplateString = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>eixdb Status</title>
	<style>
		body          { font-family: sans-serif; }
		table, td, th { border: 1px solid #ccc; border-collapse: collapse; }
		td, th        { padding: 5px; text-align: left; }
		td.num        { text-align: right; }
		td.error      { background-color: #ffb8b8; }
		td.no-error   { background-color: #a6f3a6; }
		a             { text-decoration: none; color: #3c6ac5; }
	</style>
</head>
<body>
	<h1>eixdb Status</h1>
	<p>
		<a href="/metrics">Prometheus metrics</a> |
		<a href="/healthz">Health</a> |
		<a href="/api/meta">Last import (JSON)</a>
	</p>

	<h2>Last import</h2>
	{{ if .MetaErr }}
	<p>{{ .MetaErr }}</p>
	{{ else }}
	<table>
		<tr><th>Source</th><td>{{ .Meta.Source }}</td></tr>
		<tr><th>Time</th><td>{{ .Meta.Time.Format "2006-01-02 15:04:05 MST" }}</td></tr>
		<tr><th>Generation</th><td>{{ .Meta.GenerationID }}</td></tr>
		<tr><th>Format version</th><td>{{ .Meta.FormatVersion }}</td></tr>
		<tr><th>Digest</th><td>{{ printf "%016x" .Meta.Digest }}</td></tr>
		<tr><th>Categories</th><td class="num">{{ .Meta.Categories }}</td></tr>
		<tr><th>Packages</th><td class="num">{{ .Meta.Packages }}</td></tr>
		<tr><th>Versions</th><td class="num">{{ .Meta.Versions }}</td></tr>
		<tr><th>Installed</th><td class="num">{{ .Meta.Installed }}</td></tr>
	</table>
	{{ end }}

	<h2>Reload</h2>
	<table>
		<tr><th>Last check</th><td>{{ if .Check.Time.IsZero }}never{{ else }}{{ .Check.Time.Format "2006-01-02 15:04:05 MST" }} ({{ .Check.Source }}){{ end }}</td></tr>
		<tr><th>Changed</th><td>{{ .Check.Changed }}</td></tr>
		{{ if .Check.Err }}
		<tr><th>Error</th><td class="error">{{ .Check.Err }}</td></tr>
		{{ else }}
		<tr><th>Error</th><td class="no-error">none</td></tr>
		{{ end }}
		<tr><th>Consecutive failures</th><td class="num">{{ .Health.Failures }}</td></tr>
	</table>

	<h2>Index</h2>
	{{ if .InfoErr }}
	<p>{{ .InfoErr }}</p>
	{{ else }}
	<p>
		Used {{ .Info.Used.HumanReadable }} of {{ .Info.MapSize.HumanReadable }}
		({{ printf "%.1f" .Info.UsedPercent }} %), file size {{ .Info.FileSize.HumanReadable }},
		{{ .Info.NumReaders }} of {{ .Info.MaxReaders }} readers,
		oldest reader lags {{ .Info.ReaderLag }} transactions
	</p>
	<table>
		<tr><th>DBI</th><th>Entries</th><th>Used</th></tr>
		{{ range .Info.DBIs }}
		<tr><td>{{ .Name }}</td><td class="num">{{ .Entries }}</td><td class="num">{{ .Used.HumanReadable }}</td></tr>
		{{ end }}
	</table>
	{{ end }}

	{{ if .HasStorage }}
	<h2>Storage</h2>
	{{ if .BlobsErr }}
	<p>{{ .BlobsErr }}</p>
	{{ else }}
	<table>
		<tr><th>Name</th><th>Size</th></tr>
		{{ range .Blobs }}
		<tr><td>{{ .Name }}</td><td class="num">{{ .Size }}</td></tr>
		{{ end }}
	</table>
	{{ end }}
	{{ end }}

	<h2>Config</h2>
	<pre>{{ .Config }}</pre>

</body>
</html>`

var statusTemplate *htmltemplate.Template

func init() {
	var err error
	statusTemplate, err = htmltemplate.New("status").Parse(statusTemplateString)
	if err != nil {
		log.Fatalf("BUG: Error in status HTML template: %v", err)
	}
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s := p.s

	data := struct {
		Config     string
		Meta       index.Meta
		MetaErr    error
		Info       index.Info
		InfoErr    error
		Check      Check
		Health     healthtracker.State
		HasStorage bool
		Blobs      simpleblob.BlobList
		BlobsErr   error
	}{
		Config:     s.c.String(),
		Check:      s.LastCheck(),
		HasStorage: s.opt.Storage != nil,
	}
	data.Meta, data.MetaErr = s.ix.Meta()
	data.Info, data.InfoErr = s.ix.Info()
	if s.opt.Reload != nil {
		data.Health = s.opt.Reload.State()
	}
	if data.HasStorage {
		data.Blobs, data.BlobsErr = s.ListBlobs(r.Context())
	}

	err := statusTemplate.Execute(w, data)
	if err != nil {
		w.WriteHeader(500)
		_, _ = w.Write([]byte(fmt.Sprintf("Template execution error: %v", err)))
	}
}
