package catalog

import (
	"fmt"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

// Snapshot - Fiyatlama için salt-okunur katalog görüntüsü: yemekler,
// modifier tanımları ve aktif fiyat listesi override'ları.
type Snapshot struct {
	BranchID  uint
	dishes    map[uint]models.Dish
	overrides map[uint]float64 // dish_id -> aktif fiyat listesi fiyatı
}

func LoadSnapshot(db *gorm.DB, branchID uint) (*Snapshot, error) {
	s := &Snapshot{
		BranchID:  branchID,
		dishes:    make(map[uint]models.Dish),
		overrides: make(map[uint]float64),
	}

	var dishes []models.Dish
	if err := db.Preload("Modifiers").Where("branch_id = ?", branchID).Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("katalog yüklenemedi: %w", err)
	}
	for _, d := range dishes {
		s.dishes[d.ID] = d
	}

	// Aktif fiyat listesi varsa override'ları uygula
	var priceList models.PriceList
	err := db.Where("branch_id = ? AND is_active = ?", branchID, true).First(&priceList).Error
	if err == nil {
		var items []models.PriceListItem
		if err := db.Where("price_list_id = ?", priceList.ID).Find(&items).Error; err != nil {
			return nil, fmt.Errorf("fiyat listesi yüklenemedi: %w", err)
		}
		for _, it := range items {
			s.overrides[it.DishID] = it.Price
		}
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("fiyat listesi sorgusu başarısız: %w", err)
	}

	return s, nil
}

func (s *Snapshot) Dish(id uint) (models.Dish, bool) {
	d, ok := s.dishes[id]
	return d, ok
}

// EffectivePrice - Aktif fiyat listesi varsa override, yoksa katalog fiyatı.
func (s *Snapshot) EffectivePrice(dishID uint) (float64, bool) {
	d, ok := s.dishes[dishID]
	if !ok {
		return 0, false
	}
	if p, ok := s.overrides[dishID]; ok {
		return p, true
	}
	return d.Price, true
}

func (s *Snapshot) IsAvailable(dishID uint) bool {
	d, ok := s.dishes[dishID]
	return ok && d.IsAvailable
}

func (s *Snapshot) Modifier(dishID, modifierID uint) (models.DishModifier, bool) {
	d, ok := s.dishes[dishID]
	if !ok {
		return models.DishModifier{}, false
	}
	for _, m := range d.Modifiers {
		if m.ID == modifierID {
			return m, true
		}
	}
	return models.DishModifier{}, false
}
