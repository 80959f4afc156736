package main

import (
	"encoding/json"
	"io/ioutil"
	"net/http"

	"github.com/golang/glog"
	"github.com/graphql-go/graphql"
)

type querier interface {
	Query(query string, vars map[string]interface{}) *graphql.Result
}

// newAPI serves the controller's graphql schema. v1 takes the query from the
// url, v2 takes an apollo style json body.
func newAPI(q querier) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		glog.V(2).Infoln(query)
		res := q.Query(query, nil)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	})

	mux.HandleFunc("/api/v2/graphql", func(w http.ResponseWriter, r *http.Request) {
		body, err := ioutil.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		var apolloQuery struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		if err := json.Unmarshal(body, &apolloQuery); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		glog.V(2).Infoln(apolloQuery.Query, apolloQuery.Variables)

		res := q.Query(apolloQuery.Query, apolloQuery.Variables)
		for _, err := range res.Errors {
			glog.Errorln(err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	})

	return mux
}
