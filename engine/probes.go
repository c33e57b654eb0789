package engine

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func ServeHealthProbe(db *sql.DB) Handler {
	return func(r *http.Request, ps httprouter.Params) Response {
		txn, err := db.BeginTx(r.Context(), nil)
		if err != nil {
			return Error(err)
		}
		if err := txn.Rollback(); err != nil {
			return Error(err)
		}
		return func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) }
	}
}

func CheckHealthProbe(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}
