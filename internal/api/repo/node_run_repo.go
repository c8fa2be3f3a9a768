package repo

import (
	"odatanode"
	"odatanode/internal/api/models"

	"gorm.io/gorm"
)

type NodeRunRepository struct {
	Db *gorm.DB
}

func NewNodeRunRepository() *NodeRunRepository {
	return &NodeRunRepository{Db: odatanode.DB}
}

func (slf *NodeRunRepository) Create(run *models.NodeRun) error {
	return slf.Db.Create(run).Error
}

func (slf *NodeRunRepository) Update(run *models.NodeRun) error {
	return slf.Db.Save(run).Error
}

// FindByNode returns the latest runs of a node, newest first
func (slf *NodeRunRepository) FindByNode(nodeID uint, limit int) ([]models.NodeRun, error) {
	var runs []models.NodeRun
	err := slf.Db.
		Where("node_id = ?", nodeID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

func (slf *NodeRunRepository) DeleteByNode(nodeID uint) error {
	return slf.Db.Where("node_id = ?", nodeID).Delete(&models.NodeRun{}).Error
}
