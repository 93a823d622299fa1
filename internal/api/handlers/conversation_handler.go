package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/callscribe/callscribe/internal/export"
	"github.com/callscribe/callscribe/internal/models"
	mongorepo "github.com/callscribe/callscribe/internal/repositories/mongo"
	"github.com/callscribe/callscribe/internal/services"
	"github.com/callscribe/callscribe/internal/utils"
)

type ConversationHandler struct {
	uploads  services.UploadService
	pipeline services.PipelineService
	convos   mongorepo.ConversationRepository
}

func NewConversationHandler(uploads services.UploadService, pipeline services.PipelineService, convos mongorepo.ConversationRepository) *ConversationHandler {
	return &ConversationHandler{uploads: uploads, pipeline: pipeline, convos: convos}
}

// Upload accepts a multipart audio file and creates the conversation record.
func (h *ConversationHandler) Upload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.Upload", "multipart field 'audio' is required", err))
		return
	}
	defer file.Close()

	rec, err := h.uploads.Upload(c.Request.Context(), services.UploadInput{
		UserID:      userID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Title:       c.PostForm("title"),
		Language:    c.PostForm("language"),
		RecordingID: c.PostForm("recording_id"),
		Reader:      file,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// Process starts the pipeline. Default is fire-and-forget through the worker
// pool; ?sync=true runs inline and returns after completion.
func (h *ConversationHandler) Process(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	id := c.Param("conversation_id")

	if c.Query("sync") == "true" {
		if err := h.pipeline.Process(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversation_id": id, "status": "done"})
		return
	}

	if err := h.pipeline.Enqueue(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"conversation_id": id, "status": "queued"})
}

func (h *ConversationHandler) Progress(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	p, err := h.pipeline.Progress(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	rec, err := h.convos.GetByConversationID(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		writeError(c, utils.E(utils.CodeNotFound, "ConversationHandler.Get", "conversation not found", err))
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ConversationHandler) List(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	limit := int64(50)
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	rows, err := h.convos.ListByStatus(c.Request.Context(), models.ConversationStatus(c.Query("status")), limit)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "ConversationHandler.List", "failed to list conversations", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": rows})
}

// RenameSpeaker sets the user-assigned name, the only speaker field mutable
// after completion.
func (h *ConversationHandler) RenameSpeaker(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ConversationHandler.RenameSpeaker", "name is required", err))
		return
	}

	err := h.convos.SetSpeakerName(c.Request.Context(),
		c.Param("conversation_id"), c.Param("speaker_id"), body.Name)
	if err != nil {
		writeError(c, utils.E(utils.CodeNotFound, "ConversationHandler.RenameSpeaker", "conversation or speaker not found", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"speaker_id": c.Param("speaker_id"), "name": body.Name})
}

// Export streams the conversation report workbook.
func (h *ConversationHandler) Export(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	rec, err := h.convos.GetByConversationID(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		writeError(c, utils.E(utils.CodeNotFound, "ConversationHandler.Export", "conversation not found", err))
		return
	}

	f, err := export.Workbook(rec)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "ConversationHandler.Export", "failed to build report", err))
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="conversation-`+rec.ConversationID+`.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
