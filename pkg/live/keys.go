package live

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	kverrors "github.com/vango-dev/kvstore/internal/errors"
	"github.com/vango-dev/kvstore/pkg/store"
)

// maxBodySize caps PUT bodies.
const maxBodySize = 1 << 20

// Entry is the JSON form of one key.
type Entry struct {
	Key     string `json:"key"`
	Present bool   `json:"present"`
	Value   any    `json:"value"`
}

// KeyList is the response of GET /v1/keys.
type KeyList struct {
	Keys []string `json:"keys"`
}

func (s *Server) entry(key store.Key) Entry {
	// Has and Get are separate reads; a concurrent delete between them
	// reports present with a nil value, same as a stored nil.
	return Entry{
		Key:     string(key),
		Present: s.store.Has(key),
		Value:   s.store.Get(key),
	}
}

// keyFromPath canonicalizes the route wildcard. Slashes separate segments,
// so /a/b and /a.b name the same key.
func keyFromPath(r *http.Request) (store.Key, error) {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return store.NoKey, kverrors.New("K040")
	}

	parts := strings.Split(raw, "/")
	segments := make([]any, len(parts))
	for i, p := range parts {
		if p == "" {
			return store.NoKey, kverrors.New("K040").
				WithDetail("Key " + raw + " has an empty segment.")
		}
		segments[i] = p
	}
	return store.Path(segments...), nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	keys := s.store.Keys()
	out := KeyList{Keys: make([]string, len(keys))}
	for i, k := range keys {
		out.Keys[i] = string(k)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromPath(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !s.store.Has(key) {
		s.writeError(w, kverrors.New("K042").WithDetail("Key "+string(key)+" is not present."))
		return
	}
	writeJSON(w, http.StatusOK, s.entry(key))
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromPath(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	value, err := decodeValue(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if isTrue(r.URL.Query().Get("init")) {
		s.store.Initialize(key, value)
		s.logger.Debug("initialized", "key", string(key))
	} else {
		s.store.Set(key, store.Value(value))
		s.logger.Debug("set", "key", string(key))
	}
	writeJSON(w, http.StatusOK, s.entry(key))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := keyFromPath(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !s.store.Delete(key) {
		s.writeError(w, kverrors.New("K042").WithDetail("Key "+string(key)+" is not present."))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeValue reads exactly one JSON value from body.
func decodeValue(body io.Reader) (any, error) {
	dec := json.NewDecoder(body)
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, kverrors.New("K041").Wrap(err)
	}
	if dec.More() {
		return nil, kverrors.New("K041").WithDetail("The request body holds more than one JSON value.")
	}
	return value, nil
}

func isTrue(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}
