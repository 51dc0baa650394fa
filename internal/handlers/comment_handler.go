package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/services"
)

type commentRequest struct {
	Comment string `json:"comment"`
}

func AddComment(cs *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}
		businessID, ok := pathID(c, "id")
		if !ok {
			return
		}

		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request body"))
			return
		}

		comment, err := cs.AddComment(c.Request.Context(), businessID, claims.UserID, req.Comment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(comment, "Comment posted"))
	}
}

func ToggleCommentLike(cs *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustUser(c)
		if !ok {
			return
		}
		businessID, ok := pathID(c, "id")
		if !ok {
			return
		}
		commentID, ok := pathID(c, "comment_id")
		if !ok {
			return
		}

		res, err := cs.ToggleLike(c.Request.Context(), businessID, commentID, claims.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(res, ""))
	}
}

func ListComments(cs *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		businessID, ok := pathID(c, "id")
		if !ok {
			return
		}
		viewerID := ""
		if viewer := viewerOf(c); viewer != nil {
			viewerID = viewer.ID
		}

		page, err := cs.ListComments(
			c.Request.Context(),
			businessID,
			viewerID,
			queryInt(c, "page", 1),
			queryInt(c, "page_size", services.CommentsPageSize),
			services.ParseCommentSort(c.Query("sort")),
		)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(page, ""))
	}
}
