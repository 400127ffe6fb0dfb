package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/devcollab/collab-services/internal/boardsvc/service"
	"github.com/devcollab/collab-services/internal/boardsvc/store"
)

type Handler struct {
	tokenAuth     *jwtauth.JWTAuth
	boardService  *service.BoardService
	accessService *service.AccessService
}

func NewHandler(boardService *service.BoardService, accessService *service.AccessService) *Handler {
	return &Handler{
		boardService:  boardService,
		accessService: accessService,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "board service is running at port " + os.Getenv("BOARD_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}

// GetBoardHandler serves the initial board load when a client opens the
// task view, before it joins the socket room.
func (h *Handler) GetBoardHandler(w http.ResponseWriter, r *http.Request) {
	projectId := chi.URLParam(r, "projectId")

	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusUnauthorized, Error: "invalid token"})
		return
	}
	userId, ok := claims["user_id"].(float64)
	if !ok {
		h.CreateResponse(w, Response{Code: http.StatusUnauthorized, Error: "invalid token"})
		return
	}

	hasAccess, err := h.accessService.HasAccess(r.Context(), projectId, int64(userId))
	if err != nil {
		log.Errorf("Error checking access for project %s: %s", projectId, err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "internal error"})
		return
	}
	if !hasAccess {
		h.CreateResponse(w, Response{Code: http.StatusForbidden, Error: "not a project member"})
		return
	}

	board, err := h.boardService.GetOrCreateBoard(r.Context(), projectId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: "board not found"})
			return
		}
		log.Errorf("Error loading board for project %s: %s", projectId, err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "internal error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(board); err != nil {
		log.Errorf("Failed to encode board response: %v", err)
	}
}
