package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
	"github.com/qadash/qa_dashboard_REST_server/internal/rest/models"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/helper"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/response"
)

// UserSource resolves the current session identity.
type UserSource interface {
	CurrentUser(ctx context.Context, session string) (*domain.User, error)
}

// DeveloperSource lists assignable developers.
type DeveloperSource interface {
	Developers(ctx context.Context, session string) ([]domain.Assignee, error)
}

type Auth struct {
	log        *logrus.Entry
	users      UserSource
	developers DeveloperSource
}

func NewAuthHandler(users UserSource, developers DeveloperSource, log *logrus.Logger) *Auth {
	return &Auth{
		log:        logrus.NewEntry(log),
		users:      users,
		developers: developers,
	}
}

func (h *Auth) EnrichRoutes(router *gin.Engine) {
	router.GET("/auth/me", h.meAction)
	router.GET("/api/developers", h.listDevelopersAction)
}

func (h *Auth) meAction(c *gin.Context) {
	const op = "handlers.Auth.meAction"
	log := h.log.WithField("operation", op)

	session := helper.ExtractSessionFromCookies(c)
	if session == "" {
		c.Status(http.StatusUnauthorized)
		return
	}

	user, err := h.users.CurrentUser(c.Request.Context(), session)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to resolve user", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":   user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

func (h *Auth) listDevelopersAction(c *gin.Context) {
	const op = "handlers.Auth.listDevelopersAction"
	log := h.log.WithField("operation", op)
	log.Info("list developers")

	session := helper.ExtractSessionFromCookies(c)
	if session == "" {
		c.Status(http.StatusUnauthorized)
		return
	}

	user, err := h.users.CurrentUser(c.Request.Context(), session)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to resolve user", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}
	if user.Role != domain.RoleQA {
		response.HandleError(response.NewForbiddenError("only QA may list developers"), c)
		return
	}

	devs, err := h.developers.Developers(c.Request.Context(), session)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to list developers", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	list := make([]models.User, 0, len(devs))
	for _, dev := range devs {
		list = append(list, models.User{ID: dev.ID, Username: dev.Username})
	}
	c.JSON(http.StatusOK, list)
}
