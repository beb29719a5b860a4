package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/internal/repository"
	"github.com/famsphere/famsphere-server/pkg/apperrors"
	"github.com/famsphere/famsphere-server/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// MemberService manages family member accounts and authentication.
type MemberService struct {
	repo *repository.MemberRepository
}

func NewMemberService(repo *repository.MemberRepository) *MemberService {
	return &MemberService{repo: repo}
}

// RegisterMember creates a family member account. Names are the identity
// goals and chat refer to, so they must be unique within the family.
func (s *MemberService) RegisterMember(ctx context.Context, name string, role models.MemberRole, colorHex, password string) (*models.FamilyMember, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("member name is required")
	}
	if name == models.SystemAuthorName {
		return nil, apperrors.Validation("%q is reserved", models.SystemAuthorName)
	}
	if role != models.RoleParent && role != models.RoleChild {
		return nil, apperrors.Validation("role must be parent or child")
	}
	if len(password) < 4 {
		return nil, apperrors.Validation("password must be at least 4 characters")
	}

	if existing, err := s.repo.GetMemberByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.Validation("a member named %q already exists", name)
	} else if err != nil && err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to check member name: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	member := &models.FamilyMember{
		Name:           name,
		Role:           role,
		ColorHex:       colorHex,
		HashedPassword: string(hashed),
	}
	created, err := s.repo.CreateMember(ctx, member)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to register member")
		return nil, fmt.Errorf("failed to register member: %v", err)
	}

	logger.Log.WithField("member_id", created.ID.Hex()).Info("Member registered")
	return created, nil
}

// AuthenticateMember verifies name and password.
func (s *MemberService) AuthenticateMember(ctx context.Context, name, password string) (*models.FamilyMember, error) {
	member, err := s.repo.GetMemberByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("invalid name or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.HashedPassword), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid name or password")
	}
	return member, nil
}

// ManageMembers returns full member records (minus credentials) for the
// parent management screen.
func (s *MemberService) ManageMembers(ctx context.Context) ([]models.FamilyMember, error) {
	members, err := s.repo.GetAllMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %v", err)
	}
	return members, nil
}

// ListMembers returns every family member's public shape.
func (s *MemberService) ListMembers(ctx context.Context) ([]models.PublicMember, error) {
	members, err := s.repo.GetAllMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %v", err)
	}
	public := make([]models.PublicMember, 0, len(members))
	for i := range members {
		public = append(public, members[i].Public())
	}
	return public, nil
}
