package repo

import (
	"odatanode"
	"odatanode/internal/api/models"

	"gorm.io/gorm"
)

type NodeRepository struct {
	Db *gorm.DB
}

func NewNodeRepository() *NodeRepository {
	return &NodeRepository{Db: odatanode.DB}
}

// FindByID retrieves a node by ID
func (slf *NodeRepository) FindByID(id uint) (models.Node, error) {
	var node models.Node
	err := slf.Db.First(&node, id).Error
	return node, err
}

func (slf *NodeRepository) FindAllByType(nodeType models.NodeType) ([]models.Node, error) {
	var nodes []models.Node
	err := slf.Db.Where("type = ?", nodeType).Order("id").Find(&nodes).Error
	return nodes, err
}

func (slf *NodeRepository) Create(node *models.Node) error {
	return slf.Db.Create(node).Error
}

func (slf *NodeRepository) Update(node *models.Node) error {
	return slf.Db.Save(node).Error
}

func (slf *NodeRepository) Delete(id uint) error {
	return slf.Db.Delete(&models.Node{}, id).Error
}
