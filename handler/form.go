package handler

import (
	_ "embed"
	"net/http"
)

//go:embed static/form.html
var formPage []byte

// Form serves the contact form page.
func Form(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	rw.Write(formPage)
}

// Health reports that the process is serving.
func Health(rw http.ResponseWriter, r *http.Request) {
	respond(r.Context(), rw, http.StatusOK, map[string]string{"status": "ok"})
}
