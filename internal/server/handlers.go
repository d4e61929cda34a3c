package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/idilsaglam/royaltodo/internal/model"
	"github.com/idilsaglam/royaltodo/internal/store"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listItems(c *gin.Context) {
	items, err := s.store.List(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

func (s *Server) createItem(c *gin.Context) {
	var f model.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if f.Deleted != nil && *f.Deleted {
		fail(c, http.StatusBadRequest, "cannot create a deleted item")
		return
	}
	task, err := s.store.Create(c.Request.Context(), f)
	if err != nil {
		s.storeError(c, err)
		return
	}
	ok(c, http.StatusCreated, task)
}

func (s *Server) updateItem(c *gin.Context) {
	id := c.Param("id")
	var f model.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		fail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	task, err := s.store.Update(c.Request.Context(), id, f)
	if err != nil {
		s.storeError(c, err)
		return
	}
	ok(c, http.StatusOK, task)
}

func (s *Server) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, "item not found")
	case errors.Is(err, store.ErrInvalid):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("store call failed", "path", c.FullPath(), "err", err)
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func ok(c *gin.Context, code int, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		fail(c, http.StatusInternalServerError, "encode response")
		return
	}
	c.JSON(code, store.Response{Success: true, Data: b})
}

func fail(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, store.Response{Success: false, Error: msg})
}
