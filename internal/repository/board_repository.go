package repository

import (
	"context"
	"errors"
	"slices"

	"orderlyflow/internal/api"
	"orderlyflow/internal/board"
	"orderlyflow/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BoardRepositoryInterface interface {
	ListByOrganization(ctx context.Context, organizationID string) ([]model.Board, error)
	GetByID(ctx context.Context, id string) (*model.Board, error)
	Load(ctx context.Context, id string) (*board.Board, error)
	Create(ctx context.Context, b *model.Board) error
	Update(ctx context.Context, id string, req api.UpdateBoardRequest) (*model.Board, error)
	Delete(ctx context.Context, id string) error
}

var _ BoardRepositoryInterface = (*BoardRepository)(nil)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Create(ctx context.Context, b *model.Board) error {
	err := r.db.WithContext(ctx).Create(b).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateID
	}
	return err
}

func (r *BoardRepository) ListByOrganization(ctx context.Context, organizationID string) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at").
		Find(&boards).Error
	return boards, err
}

func (r *BoardRepository) GetByID(ctx context.Context, id string) (*model.Board, error) {
	var b model.Board
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Load assembles the whole aggregate: groups, items and subitems ordered by
// position, and the board's people.
func (r *BoardRepository) Load(ctx context.Context, id string) (*board.Board, error) {
	row, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)

	var (
		groups   []model.Group
		items    []model.Item
		subitems []model.Subitem
		people   []model.Person
	)
	if err := db.Where("board_id = ?", id).Order("position, created_at").Find(&groups).Error; err != nil {
		return nil, err
	}
	if err := db.Where("board_id = ?", id).Order("position, created_at").Find(&items).Error; err != nil {
		return nil, err
	}
	if err := db.Where("board_id = ?", id).Order("position, created_at").Find(&subitems).Error; err != nil {
		return nil, err
	}
	if err := db.Where("board_id = ?", id).Order("created_at").Find(&people).Error; err != nil {
		return nil, err
	}

	b := row.ToDomain()
	subsByItem := map[string][]board.Subitem{}
	for i := range subitems {
		s := subitems[i].ToDomain()
		subsByItem[s.ItemID] = append(subsByItem[s.ItemID], s)
	}
	itemsByGroup := map[string][]board.Item{}
	for i := range items {
		it := items[i].ToDomain()
		if subs := subsByItem[it.ID]; subs != nil {
			it.Subitems = subs
		}
		itemsByGroup[it.GroupID] = append(itemsByGroup[it.GroupID], it)
	}
	for i := range groups {
		g := groups[i].ToDomain()
		if its := itemsByGroup[g.ID]; its != nil {
			g.Items = its
		}
		b.Groups = append(b.Groups, g)
	}
	for i := range people {
		b.People = append(b.People, people[i].ToDomain())
	}
	return &b, nil
}

// Update renames the board and/or replaces its column list. A new column
// list is pushed down to every item and subitem in the same transaction so
// stored cells always match the schema.
func (r *BoardRepository) Update(ctx context.Context, id string, req api.UpdateBoardRequest) (*model.Board, error) {
	var out model.Board
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBoardNotFound
			}
			return err
		}
		if req.Name != nil {
			out.Name = *req.Name
		}
		schemaChanged := false
		if req.Columns != nil {
			cols := slices.Clone(*req.Columns)
			if cols == nil {
				cols = []board.Column{}
			}
			schemaChanged = !slices.Equal(cols, out.ColumnList())
			out.Columns = datatypes.NewJSONType(cols)
		}
		if err := tx.Save(&out).Error; err != nil {
			return err
		}
		if schemaChanged {
			return reconcileBoardCells(tx, id, out.ColumnList())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func reconcileBoardCells(tx *gorm.DB, boardID string, cols []board.Column) error {
	var items []model.Item
	if err := tx.Where("board_id = ?", boardID).Find(&items).Error; err != nil {
		return err
	}
	for i := range items {
		if cells, changed := board.ReconcileCells(cols, items[i].Columns.Data()); changed {
			if err := tx.Model(&items[i]).Update("columns", datatypes.NewJSONType(cells)).Error; err != nil {
				return err
			}
		}
	}

	var subitems []model.Subitem
	if err := tx.Where("board_id = ?", boardID).Find(&subitems).Error; err != nil {
		return err
	}
	for i := range subitems {
		if cells, changed := board.ReconcileCells(cols, subitems[i].Columns.Data()); changed {
			if err := tx.Model(&subitems[i]).Update("columns", datatypes.NewJSONType(cells)).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// Delete removes the board; children go with it through ON DELETE CASCADE.
func (r *BoardRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&model.Board{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}
