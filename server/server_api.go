package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kwertop/probset"
	"github.com/kwertop/probset/filters"
	"github.com/kwertop/probset/units"
)

const maxBodySize = 64 << 10

var (
	errNotFound         = errors.New("no such endpoint")
	errMethodNotAllowed = errors.New("method not allowed (expecting GET or POST)")
)

type apiError struct {
	Error string `json:"error"`
}

// restAPIhandle serves everything below /api/
func (s *Server) restAPIhandle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, errMethodNotAllowed)
		return
	}
	action := strings.TrimPrefix(r.URL.Path, "/api/")
	result, err := s.api(r.Context(), action, r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) api(ctx context.Context, action string, r *http.Request) (interface{}, error) {
	if action == "version" {
		return s.info(), nil
	}
	request, err := s.readRequest(r)
	if err != nil {
		return nil, err
	}
	switch action {
	case "bloom", "cuckoo":
		sizer, err := filters.SizerFor(filters.Kind(action))
		if err != nil {
			return nil, err
		}
		return sizer(request)
	case "compare":
		return s.compare(ctx, request)
	case "capacity":
		return filters.Capacities(request)
	}
	return nil, errNotFound
}

// compare goes through the Redis cache when one is configured
func (s *Server) compare(ctx context.Context, request filters.FilterRequest) (filters.ComparisonResult, error) {
	_, c := s.current()
	if c == nil {
		return filters.Compare(request)
	}
	return c.Compare(ctx, request)
}

// readRequest decodes a FilterRequest from a JSON body on POST or from the
// query string on GET, then applies the server defaults and limits
func (s *Server) readRequest(r *http.Request) (filters.FilterRequest, error) {
	var request filters.FilterRequest
	var err error
	if r.Method == http.MethodPost {
		request, err = decodeRequest(r.Body)
	} else {
		request, err = parseQuery(r.URL.Query())
	}
	if err != nil {
		return request, err
	}
	c, _ := s.current()
	if c == nil {
		return request, nil
	}
	if request.EntriesPerBucket == 0 {
		request.EntriesPerBucket = c.DefaultEntriesPerBucket
	}
	if c.ExactBuckets {
		request.ExactBuckets = true
	}
	limit, err := c.MaxBudgetBits()
	if err != nil {
		return request, err
	}
	if limit > 0 && request.MemoryBudgetBits > limit {
		return request, probset.InvalidInputf("memory budget of %s exceeds the limit of %s",
			units.FormatBits(uint64(request.MemoryBudgetBits)), units.FormatBits(uint64(limit)))
	}
	return request, nil
}

func decodeRequest(body io.Reader) (filters.FilterRequest, error) {
	var request filters.FilterRequest
	dec := json.NewDecoder(io.LimitReader(body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		return request, probset.InvalidInputf("malformed request body: %v", err)
	}
	return request, nil
}

// parseQuery reads the human friendly form used by the HTML page:
// elements=10M&rate=1%&storage=16MiB&bucket=4&load=0.9&exact=true
func parseQuery(q url.Values) (filters.FilterRequest, error) {
	var request filters.FilterRequest
	var err error
	if request.Elements, err = units.ParseElements(q.Get("elements")); err != nil {
		return request, err
	}
	if request.FalsePositiveRate, err = units.ParseRate(q.Get("rate")); err != nil {
		return request, err
	}
	if request.MemoryBudgetBits, err = units.ParseStorage(q.Get("storage")); err != nil {
		return request, err
	}
	if v := strings.TrimSpace(q.Get("bucket")); v != "" {
		if request.EntriesPerBucket, err = strconv.Atoi(v); err != nil {
			return request, probset.InvalidInputf("cannot parse entries per bucket %q", v)
		}
	}
	if v := strings.TrimSpace(q.Get("load")); v != "" {
		if request.LoadFactor, err = strconv.ParseFloat(v, 64); err != nil {
			return request, probset.InvalidInputf("cannot parse load factor %q", v)
		}
	}
	if v := strings.TrimSpace(q.Get("exact")); v != "" {
		if request.ExactBuckets, err = strconv.ParseBool(v); err != nil {
			return request, probset.InvalidInputf("cannot parse exact %q", v)
		}
	}
	return request, nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, probset.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, probset.ErrUnsupportedConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, errMethodNotAllowed):
		return http.StatusMethodNotAllowed
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		logger.Printf("api error: %v", err)
	}
	writeJSON(w, code, apiError{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("encode failed: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}
