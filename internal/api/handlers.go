// Package api serves applicant locker sessions over HTTP.
package api

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"visa-locker/internal/common/errors"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/locker"
	"visa-locker/internal/portal"
	"visa-locker/internal/questionnaire/catalog"
	"visa-locker/internal/questionnaire/completion"
)

const sessionKey = "lockerSession"

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type HTTPEndpoints struct {
	sessions  *Sessions
	logger    logger.Logger
	maxUpload int64
}

func NewHTTPHandler(sessions *Sessions, maxUpload int64, log logger.Logger) *HTTPEndpoints {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &HTTPEndpoints{
		sessions:  sessions,
		logger:    logger.Component(log, "api"),
		maxUpload: maxUpload,
	}
}

func (h *HTTPEndpoints) AddLockerAPI(rg *gin.RouterGroup) {
	rg.POST("/sessions", RequirePayload(), h.login)

	sessionGroup := rg.Group("/sessions/:sessionID")
	sessionGroup.Use(h.requireSession)
	{
		sessionGroup.GET("", h.getState)
		sessionGroup.DELETE("", h.logout)
		sessionGroup.GET("/notices", h.getNotices)

		sessionGroup.PUT("/personal", RequirePayload(), h.savePersonal)

		sessionGroup.POST("/questions/start", h.startQuestions)
		sessionGroup.POST("/questions/next", RequirePayload(), h.next)
		sessionGroup.POST("/questions/back", h.back)
		sessionGroup.POST("/questions/edit", RequirePayload(), h.edit)

		sessionGroup.POST("/files/:field", h.upload)
		sessionGroup.DELETE("/files/:field/:filename", h.deleteFile)

		sessionGroup.GET("/summary", h.getSummary)
		sessionGroup.PUT("/summary", RequirePayload(), h.saveSummary)
		sessionGroup.GET("/progress", h.getProgress)
		sessionGroup.POST("/finalize", RequirePayload(), h.finalize)

		sessionGroup.GET("/dependents/:dependentID/access", h.dependentAccess)
	}
}

func (h *HTTPEndpoints) requireSession(c *gin.Context) {
	session, ok := h.sessions.Get(c.Param("sessionID"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Set(sessionKey, session)
	c.Next()
}

func sessionOf(c *gin.Context) *locker.Session {
	return c.MustGet(sessionKey).(*locker.Session)
}

func (h *HTTPEndpoints) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Debug("failed to bind request", map[string]interface{}{"error": err.Error()})
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *HTTPEndpoints) login(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		URL      string `json:"url"`
		Password string `json:"password"`
	}
	if !h.bind(c, &req) {
		return
	}
	token := req.Token
	if token == "" && req.URL != "" {
		token = portal.TokenFromURL(req.URL)
	}

	id, session, state, err := h.sessions.Open(c.Request.Context(), token, req.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	body := gin.H{
		"sessionId": id,
		"state":     state,
		"header":    session.Header(),
	}
	if when, ok := session.Appointment(); ok {
		body["appointment"] = when
	}
	c.JSON(http.StatusCreated, body)
}

func (h *HTTPEndpoints) logout(c *gin.Context) {
	if _, err := h.sessions.Close(c.Request.Context(), c.Param("sessionID")); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPEndpoints) getState(c *gin.Context) {
	session := sessionOf(c)
	body := gin.H{
		"state":  session.State(),
		"header": session.Header(),
	}
	if when, ok := session.Appointment(); ok {
		body["appointment"] = when
	}
	if q, ok := session.Current(); ok {
		body["question"] = q
		if card, ok := session.Card(); ok {
			body["card"] = cardBody{Values: card.Values, Confirmed: card.Confirmed}
		}
	}
	c.JSON(http.StatusOK, body)
}

// getNotices drains the autosave failures reported so far without waiting.
func (h *HTTPEndpoints) getNotices(c *gin.Context) {
	notices := []gin.H{}
	ch := sessionOf(c).Notices()
	for ch != nil {
		select {
		case n := <-ch:
			notice := gin.H{"kind": n.Kind, "field": n.Field, "at": n.At}
			if n.Err != nil {
				notice["error"] = n.Err.Error()
			}
			notices = append(notices, notice)
		default:
			ch = nil
		}
	}
	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

func (h *HTTPEndpoints) savePersonal(c *gin.Context) {
	var req struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value"`
	}
	if !h.bind(c, &req) {
		return
	}
	saved, err := sessionOf(c).SavePersonal(c.Request.Context(), req.Field, req.Value)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

func (h *HTTPEndpoints) startQuestions(c *gin.Context) {
	state, result, err := sessionOf(c).StartQuestions(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	code := http.StatusOK
	if !result.Complete {
		code = http.StatusUnprocessableEntity
	}
	c.JSON(code, gin.H{"state": state, "result": result})
}

type cardBody struct {
	Values    map[string]string `json:"values"`
	Confirmed bool              `json:"confirmed"`
}

func (h *HTTPEndpoints) next(c *gin.Context) {
	var req cardBody
	if !h.bind(c, &req) {
		return
	}
	out, err := sessionOf(c).Next(c.Request.Context(), completion.Card{Values: req.Values, Confirmed: req.Confirmed})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	code := http.StatusOK
	if out.Blocked {
		code = http.StatusUnprocessableEntity
	}
	c.JSON(code, outcomeBody(out.State, out.Moved, out.Blocked, out.Result))
}

func outcomeBody(state interface{}, moved, blocked bool, result completion.Result) gin.H {
	return gin.H{"state": state, "moved": moved, "blocked": blocked, "result": result}
}

func (h *HTTPEndpoints) back(c *gin.Context) {
	out, err := sessionOf(c).Back(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeBody(out.State, out.Moved, out.Blocked, out.Result))
}

func (h *HTTPEndpoints) edit(c *gin.Context) {
	var req struct {
		QuestionID string `json:"questionId" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	state, ok := sessionOf(c).Edit(c.Request.Context(), req.QuestionID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "question cannot be edited", "state": state})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *HTTPEndpoints) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "multipart form with files expected"})
		return
	}

	headers := form.File["files"]
	files := make([]portal.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.abortWithError(c, errors.NewFormatError(fh.Filename, err.Error()))
			return
		}
		defer func(f multipart.File) { f.Close() }(f)
		files = append(files, portal.File{Name: fh.Filename, Content: f})
	}

	res, err := sessionOf(c).Upload(c.Request.Context(), c.Param("field"), files)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": res.Filenames, "errors": res.Errors})
}

func (h *HTTPEndpoints) deleteFile(c *gin.Context) {
	remaining, err := sessionOf(c).DeleteFile(c.Request.Context(), c.Param("field"), c.Param("filename"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if remaining == nil {
		remaining = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"files": remaining})
}

func (h *HTTPEndpoints) getSummary(c *gin.Context) {
	view, err := sessionOf(c).Summary()
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *HTTPEndpoints) saveSummary(c *gin.Context) {
	var req struct {
		Edits []struct {
			Table string `json:"table"`
			Field string `json:"field"`
			Value string `json:"value"`
		} `json:"edits"`
	}
	if !h.bind(c, &req) {
		return
	}
	edits := make([]locker.SummaryEdit, 0, len(req.Edits))
	for _, e := range req.Edits {
		edits = append(edits, locker.SummaryEdit{
			Table: catalog.Table(strings.ToLower(strings.TrimSpace(e.Table))),
			Field: e.Field,
			Value: e.Value,
		})
	}

	result, err := sessionOf(c).SaveSummary(c.Request.Context(), edits)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	code := http.StatusOK
	if len(result.Failures) > 0 {
		code = http.StatusUnprocessableEntity
	}
	c.JSON(code, result)
}

func (h *HTTPEndpoints) getProgress(c *gin.Context) {
	report, err := sessionOf(c).Progress(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *HTTPEndpoints) finalize(c *gin.Context) {
	var req struct {
		Accuracy bool `json:"accuracy"`
		Terms    bool `json:"terms"`
	}
	if !h.bind(c, &req) {
		return
	}
	session := sessionOf(c)
	if err := session.Finalize(c.Request.Context(), locker.Acknowledgements{Accuracy: req.Accuracy, Terms: req.Terms}); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": session.State(), "header": session.Header()})
}

func (h *HTTPEndpoints) dependentAccess(c *gin.Context) {
	access, err := sessionOf(c).DependentAccess(c.Request.Context(), c.Param("dependentID"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}
