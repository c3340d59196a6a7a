package handler_test

import (
	"context"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
	"orderlyflow/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockBoardRepository struct {
	mock.Mock
}

func (m *MockBoardRepository) ListByOrganization(ctx context.Context, organizationID string) ([]model.Board, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).([]model.Board), args.Error(1)
}

func (m *MockBoardRepository) GetByID(ctx context.Context, id string) (*model.Board, error) {
	args := m.Called(ctx, id)
	b := args.Get(0)
	if b == nil {
		return nil, args.Error(1)
	}
	return b.(*model.Board), args.Error(1)
}

func (m *MockBoardRepository) Load(ctx context.Context, id string) (*board.Board, error) {
	args := m.Called(ctx, id)
	b := args.Get(0)
	if b == nil {
		return nil, args.Error(1)
	}
	return b.(*board.Board), args.Error(1)
}

func (m *MockBoardRepository) Create(ctx context.Context, b *model.Board) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBoardRepository) Update(ctx context.Context, id string, req api.UpdateBoardRequest) (*model.Board, error) {
	args := m.Called(ctx, id, req)
	b := args.Get(0)
	if b == nil {
		return nil, args.Error(1)
	}
	return b.(*model.Board), args.Error(1)
}

func (m *MockBoardRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) ListByBoard(ctx context.Context, boardID string) ([]model.Item, error) {
	args := m.Called(ctx, boardID)
	return args.Get(0).([]model.Item), args.Error(1)
}

func (m *MockItemRepository) Create(ctx context.Context, it *model.Item) error {
	return m.Called(ctx, it).Error(0)
}

func (m *MockItemRepository) Update(ctx context.Context, boardID, itemID string, req api.UpdateItemRequest) error {
	return m.Called(ctx, boardID, itemID, req).Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, boardID, itemID string) error {
	return m.Called(ctx, boardID, itemID).Error(0)
}

type MockSubitemRepository struct {
	mock.Mock
}

func (m *MockSubitemRepository) ListByBoard(ctx context.Context, boardID string) ([]model.Subitem, error) {
	args := m.Called(ctx, boardID)
	return args.Get(0).([]model.Subitem), args.Error(1)
}

func (m *MockSubitemRepository) Create(ctx context.Context, s *model.Subitem) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSubitemRepository) Update(ctx context.Context, boardID, subitemID string, req api.UpdateSubitemRequest) error {
	return m.Called(ctx, boardID, subitemID, req).Error(0)
}

func (m *MockSubitemRepository) Delete(ctx context.Context, boardID, subitemID string) error {
	return m.Called(ctx, boardID, subitemID).Error(0)
}

type MockUpdateRepository struct {
	mock.Mock
}

func (m *MockUpdateRepository) List(ctx context.Context, boardID, entityID string, t board.EntityType) ([]model.Update, error) {
	args := m.Called(ctx, boardID, entityID, t)
	return args.Get(0).([]model.Update), args.Error(1)
}

func (m *MockUpdateRepository) Count(ctx context.Context, boardID, entityID string, t board.EntityType) (int64, error) {
	args := m.Called(ctx, boardID, entityID, t)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUpdateRepository) GetByID(ctx context.Context, id string) (*model.Update, error) {
	args := m.Called(ctx, id)
	u := args.Get(0)
	if u == nil {
		return nil, args.Error(1)
	}
	return u.(*model.Update), args.Error(1)
}

func (m *MockUpdateRepository) Create(ctx context.Context, u *model.Update) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockUpdateRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u := args.Get(0)
	if u == nil {
		return nil, args.Error(1)
	}
	return u.(*model.User), args.Error(1)
}

type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) ListMembers(ctx context.Context, organizationID string) ([]model.Member, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).([]model.Member), args.Error(1)
}

func (m *MockOrganizationRepository) IsMember(ctx context.Context, organizationID, userID string) (bool, error) {
	args := m.Called(ctx, organizationID, userID)
	return args.Bool(0), args.Error(1)
}
