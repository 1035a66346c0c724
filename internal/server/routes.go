package server

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/laneboard/internal/api/v1"
)

func registerAuthRoutes(api huma.API, authSvc v1.AuthService) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, boards v1.BoardService, lanes v1.LaneService) {
	v1.RegisterBoardRoutes(api, boards)
	v1.RegisterMembershipRoutes(api, boards)
	v1.RegisterLabelRoutes(api, boards)
	v1.RegisterSwimlaneRoutes(api, lanes)
	v1.RegisterCardRoutes(api, lanes)
}

func registerWSRoutes(r chi.Router, stream http.HandlerFunc) {
	r.Get("/board", stream)
}
