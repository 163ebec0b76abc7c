package handlers

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/huddle/internal/catalog"
	"github.com/MrSnakeDoc/huddle/internal/domain"
	"github.com/MrSnakeDoc/huddle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/huddle/internal/logger"
)

// sportRequest is the body of add and edit. Hidden is a pointer so edit can
// tell "not sent" from false.
type sportRequest struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
	Hidden *bool  `json:"hidden"`
}

// merge overlays the fields present in the request onto current.
func (req sportRequest) merge(current domain.Sport) domain.Sport {
	if req.Name != "" {
		current.Name = req.Name
	}
	if req.Color != "" {
		current.Color = req.Color
	}
	if req.Icon != "" {
		current.Icon = req.Icon
	}
	if req.Hidden != nil {
		current.Hidden = *req.Hidden
	}
	return current
}

func (req sportRequest) sport() domain.Sport {
	s := domain.Sport{Name: req.Name, Color: req.Color, Icon: req.Icon}
	if req.Hidden != nil {
		s.Hidden = *req.Hidden
	}
	return s.Normalize().WithDefaults()
}

type mutationResponse struct {
	Revision uint64         `json:"revision"`
	Sports   []domain.Sport `json:"sports"`
}

// checkIcon enforces the admin icon set at the API boundary.
func checkIcon(s domain.Sport) error {
	if !domain.IsKnownIcon(s.Icon) {
		return &catalog.ValidationError{Field: "icon", Message: fmt.Sprintf("unknown icon %q", s.Icon)}
	}
	return nil
}

func etag(rev uint64) string {
	return `"` + strconv.FormatUint(rev, 10) + `"`
}

// viewTag extends the revision tag with the filters that shaped the body,
// so each view of one revision gets its own ETag.
func viewTag(rev uint64, visible bool, query string) string {
	if !visible && query == "" {
		return etag(rev)
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "visible=%t\x00q=%s", visible, query)
	return `"` + strconv.FormatUint(rev, 10) + "-" + strconv.FormatUint(h.Sum64(), 36) + `"`
}

// ListSports serves the full collection. ?visible=true narrows to the
// visible view and ?q= filters by name. The ETag is the catalog revision,
// suffixed per view when a filter is set.
func ListSports(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Catalog.Ready() {
			writeError(w, d.Logger, catalog.ErrNotReady)
			return
		}

		q := r.URL.Query()
		visible := false
		if v := q.Get("visible"); v != "" {
			var err error
			if visible, err = strconv.ParseBool(v); err != nil {
				writeError(w, d.Logger, &catalog.ValidationError{Field: "visible", Message: "must be a boolean"})
				return
			}
		}
		query := q.Get("q")

		snap := d.Catalog.Snapshot()
		tag := viewTag(snap.Revision, visible, query)
		w.Header().Set("ETag", tag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		sports := snap.Sports
		if visible {
			sports = domain.Visible(sports)
		}
		if query != "" {
			sports = domain.Search(sports, query)
		}
		writeJSON(w, http.StatusOK, sports)
	}
}

// VisibleSports serves the sports a normal user can pick from.
func VisibleSports(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Catalog.Ready() {
			writeError(w, d.Logger, catalog.ErrNotReady)
			return
		}
		writeJSON(w, http.StatusOK, d.Catalog.VisibleSports())
	}
}

func GetSport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Catalog.Ready() {
			writeError(w, d.Logger, catalog.ErrNotReady)
			return
		}
		name := nameParam(r)
		sport, ok := d.Catalog.Get(name)
		if !ok {
			writeError(w, d.Logger, &catalog.NotFoundError{Name: name})
			return
		}
		writeJSON(w, http.StatusOK, sport)
	}
}

// AddSport appends a sport. Empty color and icon take the admin form defaults.
func AddSport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sportRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		sport := req.sport()
		if err := checkIcon(sport); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		if err := d.Catalog.Add(r.Context(), sport); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("sport added", logger.String("name", sport.Name))
		writeMutation(w, d, http.StatusCreated)
	}
}

// ReplaceSports overwrites the whole collection with the request body.
func ReplaceSports(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sports []domain.Sport
		if err := decodeBody(w, r, &sports); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		for i := range sports {
			sports[i] = sports[i].Normalize().WithDefaults()
			if err := checkIcon(sports[i]); err != nil {
				writeError(w, d.Logger, err)
				return
			}
		}

		if err := d.Catalog.ReplaceAll(r.Context(), sports); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("sports replaced", logger.Int("count", len(sports)))
		writeMutation(w, d, http.StatusOK)
	}
}

// EditSport changes the sport named in the path. Fields omitted from the
// body keep the value stored at the time of the write.
func EditSport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := nameParam(r)

		var req sportRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if req.Icon != "" {
			if err := checkIcon(domain.Sport{Icon: strings.TrimSpace(req.Icon)}); err != nil {
				writeError(w, d.Logger, err)
				return
			}
		}

		if err := d.Catalog.Update(r.Context(), name, req.merge); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("sport edited",
			logger.String("name", name),
			logger.String("new_name", req.merge(domain.Sport{Name: name}).Name))
		writeMutation(w, d, http.StatusOK)
	}
}

func DeleteSport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := nameParam(r)
		if err := d.Catalog.Delete(r.Context(), name); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("sport deleted", logger.String("name", name))
		w.Header().Set("ETag", etag(d.Catalog.Revision()))
		w.WriteHeader(http.StatusNoContent)
	}
}

func ToggleSport(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := nameParam(r)
		if err := d.Catalog.ToggleVisibility(r.Context(), name); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		d.Logger.Info("sport visibility toggled", logger.String("name", name))
		writeMutation(w, d, http.StatusOK)
	}
}

func writeMutation(w http.ResponseWriter, d deps.Deps, status int) {
	snap := d.Catalog.Snapshot()
	w.Header().Set("ETag", etag(snap.Revision))
	writeJSON(w, status, mutationResponse{Revision: snap.Revision, Sports: snap.Sports})
}
