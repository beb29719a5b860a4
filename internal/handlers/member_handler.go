package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/famsphere/famsphere-server/internal/config"
	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/internal/services"
	jwtutil "github.com/famsphere/famsphere-server/pkg/jwt"
	"github.com/famsphere/famsphere-server/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// MemberHandler handles family member registration, login and listing.
type MemberHandler struct {
	Service *services.MemberService
	Config  *config.Config
}

func NewMemberHandler(service *services.MemberService, cfg *config.Config) *MemberHandler {
	return &MemberHandler{
		Service: service,
		Config:  cfg,
	}
}

type registerMemberRequest struct {
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=parent child"`
	ColorHex string `json:"color_hex"`
	Password string `json:"password" validate:"required,min=4"`
}

// RegisterMemberHandler creates a family member account.
func (h *MemberHandler) RegisterMemberHandler(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("Failed to decode member registration request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	member, err := h.Service.RegisterMember(r.Context(), req.Name, models.MemberRole(req.Role), req.ColorHex, req.Password)
	if err != nil {
		log.WithError(err).Warn("Failed to register member")
		writeDomainError(w, err)
		return
	}

	log.WithField("memberID", member.ID.Hex()).Info("Member registered successfully")
	respondJSON(w, http.StatusCreated, member.Public())
}

// LoginMemberHandler authenticates a member and issues a JWT.
func (h *MemberHandler) LoginMemberHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.WithError(err).Warn("Failed to decode login request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	member, err := h.Service.AuthenticateMember(r.Context(), credentials.Name, credentials.Password)
	if err != nil {
		log.WithField("name", credentials.Name).WithError(err).Warn("Authentication failed")
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	token, err := jwtutil.GenerateToken(member.ID.Hex(), member.Name, string(member.Role), h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	log.WithField("memberID", member.ID.Hex()).Info("Member logged in successfully")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":  token,
		"member": member.Public(),
	})
}

// ManageMembersHandler lists full member records for the parent management
// screen. The route is behind RequireRole, so the role is already checked.
func (h *MemberHandler) ManageMembersHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	members, err := h.Service.ManageMembers(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list members for management")
		http.Error(w, "Failed to list members", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// GetMembersHandler lists all family members.
func (h *MemberHandler) GetMembersHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	members, err := h.Service.ListMembers(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list members")
		http.Error(w, "Failed to list members", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, members)
}
