package fichadas

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	loop     *Loop
	records  RecordStore
	sessions SessionStore
}

func RegisterRoutes(r gin.IRoutes, loop *Loop, records RecordStore, sessions SessionStore) {
	h := &Handler{loop: loop, records: records, sessions: sessions}

	// GET /sync/status (loop state + counters)
	r.GET("/sync/status", h.SyncStatus)
	// GET /fichadas (migrated raw events, newest first)
	r.GET("/fichadas", h.ListRecords)
	// GET /fichadascache (daily sessions, newest first)
	r.GET("/fichadascache", h.ListSessions)
}

// ---------- handlers ----------

func (h *Handler) SyncStatus(c *gin.Context) {
	st := h.loop.Status()
	res := StatusResponse{
		State:     string(st.State),
		CycleID:   st.CycleID,
		Processed: st.Processed,
		Failed:    st.Failed,
		LastError: st.LastError,
	}
	if !st.LastEventAt.IsZero() {
		t := st.LastEventAt
		res.LastEventAt = &t
	}
	if !st.LastErrorAt.IsZero() {
		t := st.LastErrorAt
		res.LastErrorAt = &t
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListRecords(c *gin.Context) {
	q := parseListQuery(c)
	rows, err := h.records.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	out := make([]RecordResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDTO())
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *Handler) ListSessions(c *gin.Context) {
	q := parseListQuery(c)
	rows, err := h.sessions.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	out := make([]SessionResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, s.toDTO())
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// ---------- helpers ----------

func parseListQuery(c *gin.Context) ListQuery {
	q := ListQuery{
		Limit:  parseIntDefault(c.Query("limit"), DefaultPageLimit),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}
	if v := c.Query("agente"); v != "" {
		q.AgentID = &v
	}
	if v := c.Query("from"); v != "" {
		q.From = &v
	}
	if v := c.Query("to"); v != "" {
		q.To = &v
	}
	return q
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func errorBody(err error) gin.H {
	var se *SyncError
	if errors.As(err, &se) {
		return gin.H{"code": se.Code, "error": se.Message}
	}
	return gin.H{"code": "INTERNAL", "error": err.Error()}
}

func toHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeMissingAgentRef, CodeUnresolvedAgent:
		return http.StatusBadRequest
	case CodeSourceUnavailable, CodeDestinationUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
