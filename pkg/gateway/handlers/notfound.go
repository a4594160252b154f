package handlers

import (
	"net/http"

	"github.com/medvoice-ai/medvoice/pkg/core"
	"github.com/medvoice-ai/medvoice/pkg/gateway/apierror"
	"github.com/medvoice-ai/medvoice/pkg/gateway/mw"
)

type NotFoundHandler struct{}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	writeJSON(w, http.StatusNotFound, apierror.Envelope{Error: &core.Error{
		Type:      core.ErrNotFound,
		Message:   "not found",
		RequestID: reqID,
	}})
}
