package handlers

import (
	"net/http"
	"strconv"

	"video-shelf/internal/library"
	"video-shelf/internal/search"
)

const (
	defaultPageSize      = 100
	maxPageSize          = 1000
	defaultUploaderLimit = 10
)

// QueryBody is the search query together with the sort order.
type QueryBody struct {
	search.Query
	Order *search.Order `json:"order,omitempty"`
}

// GetQuery returns the current query and order.
func (h *Handlers) GetQuery(w http.ResponseWriter, _ *http.Request) {
	order := h.session.Order()
	respondJSON(w, http.StatusOK, QueryBody{Query: h.session.Query(), Order: &order})
}

// PutQuery replaces the query text. The order changes only when given.
// The new results are published asynchronously.
func (h *Handlers) PutQuery(w http.ResponseWriter, r *http.Request) {
	var body QueryBody
	if !decodeJSON(w, r, &body) {
		return
	}
	h.session.SetQuery(body.Query)
	if body.Order != nil {
		h.session.SetOrder(*body.Order)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	order := h.session.Order()
	writeJSON(w, QueryBody{Query: h.session.Query(), Order: &order})
}

// ResultItem is one search hit.
type ResultItem struct {
	Video *library.Video `json:"video"`
	Score float64        `json:"score,omitempty"`
}

// ResultsResponse is one page of the latest published results.
type ResultsResponse struct {
	Generation uint64       `json:"generation"`
	Query      search.Query `json:"query"`
	Order      search.Order `json:"order"`
	Candidates int          `json:"candidates"`
	Total      int          `json:"total"`
	Offset     int          `json:"offset"`
	Items      []ResultItem `json:"items"`
}

// GetResults pages through the latest published results. The ETag is the
// publish generation, so polling clients get 304 until a new list exists.
func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	gen := h.session.ResultsGeneration()
	res := h.session.Results()
	if res == nil {
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, "results not ready", http.StatusServiceUnavailable)
		return
	}

	etag := `"` + strconv.FormatUint(gen, 10) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	resp := ResultsResponse{
		Generation: gen,
		Query:      res.Query,
		Order:      res.Order,
		Candidates: res.Candidates,
		Total:      len(res.Items),
		Offset:     offset,
		Items:      []ResultItem{},
	}
	if offset < len(res.Items) {
		end := min(offset+limit, len(res.Items))
		for _, item := range res.Items[offset:end] {
			resp.Items = append(resp.Items, ResultItem{Video: item.Video, Score: item.Score})
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetUploaders suggests uploader names containing ?q= among the videos the
// results are drawn from.
func (h *Handlers) GetUploaders(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultUploaderLimit)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	names := library.MatchUploaders(h.session.Aggregate().Candidates(), r.URL.Query().Get("q"), limit)
	if names == nil {
		names = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"uploaders": names})
}
