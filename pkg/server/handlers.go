package server

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
)

// descriptorResponse is a resolved descriptor plus its parent chain.
type descriptorResponse struct {
	ID           string   `json:"id"`
	ArtifactType string   `json:"artifactType"`
	ParentChain  []string `json:"parentChain,omitempty"`
	*pom.Descriptor
}

type versionsResponse struct {
	Repository string   `json:"repository"`
	Versions   []string `json:"versions"`
	Error      string   `json:"error,omitempty"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Location  string `json:"location,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	g, a, ok := s.coordinate(w, r)
	if !ok {
		return
	}
	constraint, err := url.PathUnescape(chi.URLParam(r, "constraint"))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad constraint"))
		return
	}

	d, err := s.res.Resolve(r.Context(), g, a, constraint)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := descriptorResponse{ID: d.ID(), ArtifactType: d.ArtifactType(), Descriptor: d}
	for p := d.ResolvedParent(); p != nil; p = p.ResolvedParent() {
		resp.ParentChain = append(resp.ParentChain, p.ID())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArtifactFile(w http.ResponseWriter, r *http.Request) {
	g, a, ok := s.coordinate(w, r)
	if !ok {
		return
	}
	v, err := url.PathUnescape(chi.URLParam(r, "version"))
	if err == nil {
		err = errors.ValidateVersion(v)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	d, err := s.res.Resolve(r.Context(), g, a, "["+v+"]")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	file, err := d.ArtifactFile(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("serving artifact file", "id", d.ID(), "file", file)
	http.ServeFile(w, r, file)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	g, a, ok := s.coordinate(w, r)
	if !ok {
		return
	}
	listings, err := s.res.ListVersions(r.Context(), g, a)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]versionsResponse, len(listings))
	for i, l := range listings {
		out[i] = versionsResponse{Repository: l.Repository, Versions: l.Versions}
		if out[i].Versions == nil {
			out[i].Versions = []string{}
		}
		if l.Err != nil {
			out[i].Error = errors.UserMessage(l.Err)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// coordinate reads and validates the groupId and artifactId path parameters.
func (s *Server) coordinate(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	g, a := chi.URLParam(r, "groupId"), chi.URLParam(r, "artifactId")
	if err := errors.ValidateCoordinate(g, a); err != nil {
		s.writeError(w, r, err)
		return "", "", false
	}
	return g, a, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Code: string(errors.GetCode(err)), Message: errors.UserMessage(err), RequestID: requestIDFrom(r.Context())}
	var e *errors.Error
	if errors.As(err, &e) {
		body.Message, body.Location = e.Message, e.Location
		if e.Cause != nil {
			body.Message += ": " + errors.UserMessage(e.Cause)
		}
	}
	if body.Code == "" {
		body.Code = string(errors.ErrCodeInternal)
		if errors.IsCancelled(err) {
			body.Code = "CANCELLED"
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", body.RequestID)
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	if errors.IsCancelled(err) {
		return http.StatusServiceUnavailable
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidCoordinate:
		return http.StatusBadRequest
	case errors.ErrCodeMalformed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUpstream:
		return http.StatusFailedDependency
	case errors.ErrCodeTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
