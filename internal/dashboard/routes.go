package dashboard

import (
	"io/fs"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/hookyard/internal/dispatch"
	"github.com/zulandar/hookyard/internal/editor"
	"github.com/zulandar/hookyard/internal/messaging"
	"github.com/zulandar/hookyard/internal/models"
	"github.com/zulandar/hookyard/internal/settings"
)

const (
	savedMessage    = "The configuration options have been saved."
	outdatedMessage = "The form has become outdated. Please review your changes and save again."
)

type handlers struct {
	store      settings.Store
	dispatcher *dispatch.Dispatcher
	sessions   *editor.SessionStore
}

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/settings")
	})
	router.GET("/settings", h.getSettings)
	router.POST("/settings", h.postSettings)

	api := router.Group("/api")
	api.GET("/repositories", h.listRepositories)
	api.POST("/dispatches", h.createDispatch)
}

func (h *handlers) getSettings(c *gin.Context) {
	persisted, err := settings.LoadRepositories(c.Request.Context(), h.store)
	if err != nil {
		h.fail(c, err)
		return
	}
	sess := h.sessions.Open(persisted)
	h.render(c, sess, persisted, "", nil)
}

// postSettings handles every button of the form. Add, remove and trigger
// rebuild the same session; save persists and starts over. A post for an
// unknown or expired session changes nothing and shows a fresh form.
func (h *handlers) postSettings(c *gin.Context) {
	ctx := c.Request.Context()
	persisted, err := settings.LoadRepositories(ctx, h.store)
	if err != nil {
		h.fail(c, err)
		return
	}

	selected := c.PostForm("select_repo")
	var flash messaging.Flash

	sess, ok := h.sessions.Resume(c.PostForm("form_build_id"))
	if !ok {
		flash.Add(messaging.Error(outdatedMessage))
		h.render(c, h.sessions.Open(persisted), persisted, selected, flash.Messages())
		return
	}

	values := editor.Posted{
		Owner:     c.PostFormMap("owner"),
		Repo:      c.PostFormMap("repo"),
		Token:     c.PostFormMap("github_token"),
		EventType: c.PostFormMap("event_type"),
	}.Values()

	switch op := c.PostForm("op"); {
	case c.PostForm("remove") != "":
		sess.Capture(values)
		id, err := strconv.Atoi(c.PostForm("remove"))
		if err == nil {
			err = sess.Remove(id)
		}
		if err != nil {
			flash.Add(messaging.Error("Unknown repository row."))
		}
	case op == "add":
		sess.Capture(values)
		sess.Add()
	case op == "save":
		list := sess.Submit(values)
		if err := settings.SaveRepositories(ctx, h.store, list); err != nil {
			log.Printf("dashboard: save repositories: %v", err)
			sess.Capture(values)
			flash.Add(messaging.Error("The configuration options could not be saved."))
			break
		}
		h.sessions.Discard(sess.ID)
		persisted = list
		sess = h.sessions.Open(persisted)
		flash.Add(messaging.Status(savedMessage))
	case op == "trigger":
		sess.Capture(values)
		h.dispatcher.Trigger(ctx, persisted, selected, &flash)
	default:
		sess.Capture(values)
	}

	h.render(c, sess, persisted, selected, flash.Messages())
}

func (h *handlers) render(c *gin.Context, sess *editor.Session, persisted models.RepositoryList, selected string, msgs []messaging.Message) {
	c.HTML(http.StatusOK, "layout.html", gin.H{
		"form":     sess.Render(persisted),
		"selected": selected,
		"messages": msgs,
	})
}

func (h *handlers) fail(c *gin.Context, err error) {
	log.Printf("dashboard: %v", err)
	c.String(http.StatusInternalServerError, "internal error")
}

func (h *handlers) listRepositories(c *gin.Context) {
	list, err := settings.LoadRepositories(c.Request.Context(), h.store)
	if err != nil {
		log.Printf("dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load repositories"})
		return
	}
	c.JSON(http.StatusOK, RepositoryRows(list))
}

func (h *handlers) createDispatch(c *gin.Context) {
	var req DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	list, err := settings.LoadRepositories(ctx, h.store)
	if err != nil {
		log.Printf("dashboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load repositories"})
		return
	}

	var flash messaging.Flash
	res := h.dispatcher.Trigger(ctx, list, req.Selection, &flash)
	status := http.StatusOK
	if !res.OK() {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, dispatchResponse(res, flash.Messages()[0]))
}
