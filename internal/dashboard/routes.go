package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// previewCount caps how many items each dashboard card shows.
const previewCount = 3

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, portal Portal) {
	router.GET("/", handleIndex(portal))
	router.GET("/messages", handleMessages(portal))
	router.GET("/schedules", handleSchedules(portal))
	router.GET("/announcements", handleAnnouncements(portal))
}

func handleIndex(portal Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		unread, err := portal.GetUnreadMessages(ctx)
		if err != nil {
			c.HTML(http.StatusBadGateway, "layout.html", gin.H{
				"page": "dashboard", "error": err.Error(),
			})
			return
		}

		sched, ann := previewFeeds(portal)
		// Preview fetch failures degrade to empty cards; the unread list
		// above is the load-bearing content.
		sched.Refresh(ctx)
		ann.Refresh(ctx)

		c.HTML(http.StatusOK, "layout.html", gin.H{
			"page":          "dashboard",
			"unread":        clip(unread, previewCount),
			"unreadCount":   len(unread),
			"schedules":     clip(sched.Items(), previewCount),
			"announcements": clip(ann.Items(), previewCount),
		})
	}
}

func handleMessages(portal Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		unread, err := portal.GetUnreadMessages(c.Request.Context())
		if err != nil {
			c.HTML(http.StatusBadGateway, "layout.html", gin.H{
				"page": "messages", "error": err.Error(),
			})
			return
		}
		c.HTML(http.StatusOK, "layout.html", gin.H{
			"page":   "messages",
			"unread": unread,
		})
	}
}

func handleSchedules(portal Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		sched, _ := previewFeeds(portal)
		if err := sched.Refresh(c.Request.Context()); err != nil {
			c.HTML(http.StatusBadGateway, "layout.html", gin.H{
				"page": "schedules", "error": err.Error(),
			})
			return
		}
		c.HTML(http.StatusOK, "layout.html", gin.H{
			"page":      "schedules",
			"schedules": sched.Items(),
		})
	}
}

func handleAnnouncements(portal Portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, ann := previewFeeds(portal)
		if err := ann.Refresh(c.Request.Context()); err != nil {
			c.HTML(http.StatusBadGateway, "layout.html", gin.H{
				"page": "announcements", "error": err.Error(),
			})
			return
		}
		c.HTML(http.StatusOK, "layout.html", gin.H{
			"page":          "announcements",
			"announcements": ann.Items(),
		})
	}
}

// clip returns at most n leading items.
func clip[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
