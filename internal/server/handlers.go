package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/revdeps/pkg/buildinfo"
	"github.com/matzehuels/revdeps/pkg/compat"
	"github.com/matzehuels/revdeps/pkg/depgraph"
	"github.com/matzehuels/revdeps/pkg/errors"
	"github.com/matzehuels/revdeps/pkg/manifest"
	"github.com/matzehuels/revdeps/pkg/pipeline"
)

// =============================================================================
// Response Types
// =============================================================================

type healthResponse struct {
	Status   string         `json:"status"`
	Build    buildinfo.Info `json:"build"`
	Snapshot *snapshotInfo  `json:"snapshot,omitempty"`
}

type snapshotInfo struct {
	ID       string         `json:"id"`
	Hash     string         `json:"hash"`
	Source   string         `json:"source"`
	LoadedAt time.Time      `json:"loadedAt"`
	Stats    pipeline.Stats `json:"stats"`
}

type packageSummary struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Dependents int    `json:"dependents"`
}

type dependentEdge struct {
	Name         string        `json:"name"`
	Kind         manifest.Kind `json:"kind"`
	VersionRange string        `json:"versionRange"`
}

type packageResponse struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
	Dependents       []dependentEdge   `json:"dependents"`
}

type treeResponse struct {
	*depgraph.Expansion
	Nodes  int  `json:"nodes"`
	Cached bool `json:"cached"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Build: buildinfo.Get()}
	snap := s.snap.Load()
	if snap == nil {
		resp.Status = "loading"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Snapshot = &snapshotInfo{
		ID:       snap.ID.String(),
		Hash:     snap.Hash,
		Source:   snap.Source,
		LoadedAt: snap.LoadedAt,
		Stats:    snap.Stats,
	}
	w.Header().Set(SnapshotHeader, snap.ID.String())
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFrom(r.Context())
	out := make([]packageSummary, 0, snap.Index.Len())
	snap.Index.ForEachPackage(func(rec *depgraph.Record, name string) {
		out = append(out, packageSummary{
			Name:       name,
			Version:    rec.Version,
			Dependents: rec.DependentCount(),
		})
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if err := errors.ValidatePackageName(name); err != nil {
		s.writeError(w, err)
		return
	}
	rec, ok := snapshotFrom(r.Context()).Index.Get(name)
	if !ok {
		s.writeError(w, errors.Wrap(errors.ErrCodePackageNotFound, depgraph.ErrNotFound, "package %q", name))
		return
	}

	resp := packageResponse{
		Name:             rec.Name,
		Version:          rec.Version,
		Dependencies:     rec.Manifest.Bucket(manifest.KindDependencies),
		DevDependencies:  rec.Manifest.Bucket(manifest.KindDevDependencies),
		PeerDependencies: rec.Manifest.Bucket(manifest.KindPeerDependencies),
		Dependents:       make([]dependentEdge, 0, rec.DependentCount()),
	}
	rec.ForEachDependent(func(e depgraph.Edge, dep string) {
		resp.Dependents = append(resp.Dependents, dependentEdge{Name: dep, Kind: e.Kind, VersionRange: e.VersionRange})
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Package: q.Get("name"),
		Refresh: q.Get("refresh") == "true" || q.Get("refresh") == "1",
	}
	if d := q.Get("depth"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "depth must be an integer, got %q", d))
			return
		}
		opts.MaxDepth = n
	}
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}

	exp, cached, err := s.runner.Tree(r.Context(), snapshotFrom(r.Context()), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if format == pipeline.FormatJSON {
		writeJSON(w, http.StatusOK, treeResponse{Expansion: exp, Nodes: exp.Tree.Size(), Cached: cached})
		return
	}

	body, err := pipeline.Render(r.Context(), exp, format, pipeline.RenderOptions{Detailed: q.Get("detailed") == "true"})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleCompat(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name != "" {
		if err := errors.ValidatePackageName(name); err != nil {
			s.writeError(w, err)
			return
		}
	}
	findings, _, err := s.runner.Compat(r.Context(), snapshotFrom(r.Context()), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if findings == nil {
		findings = []compat.Finding{}
	}
	writeJSON(w, http.StatusOK, compat.NewReport(findings))
}

// =============================================================================
// Helpers
// =============================================================================

var contentTypes = map[string]string{
	pipeline.FormatText: "text/plain; charset=utf-8",
	pipeline.FormatYAML: "application/yaml",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
}

type snapshotKey struct{}

// withSnapshot pins the snapshot a request runs against, so a reload
// mid-request cannot mix two indexes in one response.
func withSnapshot(ctx context.Context, snap *pipeline.Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey{}, snap)
}

func snapshotFrom(ctx context.Context) *pipeline.Snapshot {
	snap, _ := ctx.Value(snapshotKey{}).(*pipeline.Snapshot)
	return snap
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodePackageNotFound, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidManifest, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidPackage:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: string(code), Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
