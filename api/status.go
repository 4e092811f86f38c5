package api

import (
	"net/http"
	"time"

	"github.com/gitanshu/qrgen/app"
	"github.com/gitanshu/qrgen/qr"
)

type statusResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	HasCode bool   `json:"has_code"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.StartTime).Truncate(time.Second).String()

	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Uptime:  uptime,
		Version: s.Version,
		HasCode: s.Controller.Code() != nil,
	})
}

type codeView struct {
	*app.GeneratedCode
	DataURL string `json:"data_url"`
}

type stateResponse struct {
	Form    app.Form           `json:"form"`
	Code    *codeView          `json:"code,omitempty"`
	History []app.HistoryEntry `json:"history"`
	Flags   app.Flags          `json:"flags"`
}

func newStateResponse(st app.State) stateResponse {
	resp := stateResponse{Form: st.Form, History: st.History, Flags: st.Flags}
	if st.Code != nil {
		resp.Code = &codeView{GeneratedCode: st.Code, DataURL: qr.DataURL(st.Code.Raster)}
	}
	return resp
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(s.Controller.State()))
}
