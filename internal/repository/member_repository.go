package repository

import (
	"context"
	"time"

	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemberRepository handles database operations for family members.
type MemberRepository struct {
	collection *mongo.Collection
}

func NewMemberRepository(db *mongo.Database) *MemberRepository {
	return &MemberRepository{
		collection: db.Collection("members"),
	}
}

func (r *MemberRepository) CreateMember(ctx context.Context, member *models.FamilyMember) (*models.FamilyMember, error) {
	member.CreatedAt = time.Now()
	member.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, member)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert member")
		return nil, err
	}
	member.ID = result.InsertedID.(primitive.ObjectID)

	logger.Log.WithField("member_id", member.ID.Hex()).Info("Member created successfully")
	return member, nil
}

func (r *MemberRepository) GetMemberByID(ctx context.Context, id primitive.ObjectID) (*models.FamilyMember, error) {
	var member models.FamilyMember
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetMemberByName fetches a member by display name. Names are unique within
// the family.
func (r *MemberRepository) GetMemberByName(ctx context.Context, name string) (*models.FamilyMember, error) {
	var member models.FamilyMember
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) GetMembersByRole(ctx context.Context, role models.MemberRole) ([]models.FamilyMember, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"role": role})
	if err != nil {
		logger.Log.WithError(err).WithField("role", role).Error("Failed to fetch members by role")
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []models.FamilyMember
	for cursor.Next(ctx) {
		var member models.FamilyMember
		if err := cursor.Decode(&member); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, nil
}

func (r *MemberRepository) GetAllMembers(ctx context.Context) ([]models.FamilyMember, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch members")
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []models.FamilyMember
	for cursor.Next(ctx) {
		var member models.FamilyMember
		if err := cursor.Decode(&member); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, nil
}
