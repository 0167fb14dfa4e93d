package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/velvetsouk/velvetsouk-backend/api/middleware"
	"github.com/velvetsouk/velvetsouk-backend/internal/orders"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
)

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

func actorFromContext(r *http.Request) (orders.Actor, error) {
	userID, err := userIDFromContext(r)
	if err != nil {
		return orders.Actor{}, err
	}
	return orders.Actor{
		UserID: userID,
		Role:   enums.UserRole(middleware.RoleFromContext(r.Context())),
	}, nil
}
