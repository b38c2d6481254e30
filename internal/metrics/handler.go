package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Handler serves the current snapshot as JSON. database reports the pool
// state at the time of the request and may be nil.
func (c *Collector) Handler(database fmt.Stringer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := ""
		if database != nil {
			state = database.String()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(c.Snapshot(state)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}
