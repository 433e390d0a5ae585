package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/forumhq/posts-service/services"
)

// ViewRecorder bumps the post's view counter after a successful detail
// read. The write happens after the response is committed; a failed bump
// only loses one view, so the error is logged by the service and dropped.
func ViewRecorder(posts services.PostManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		postID := c.Param("id")
		if postID == "" {
			return
		}
		_, _ = posts.IncrementViews(c.Request.Context(), postID)
	}
}
