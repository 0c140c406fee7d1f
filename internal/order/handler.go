package order

import (
	"strings"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/auth"
	"restoran-pos/internal/catalog"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"
	"restoran-pos/internal/notify"
	"restoran-pos/internal/promotion"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ItemRequest struct {
	DishID      uint   `json:"dish_id"`
	Quantity    int    `json:"quantity"`
	ModifierIDs []uint `json:"modifier_ids"`
	GuestNumber int    `json:"guest_number"`
	Comment     string `json:"comment"`
	Saved       bool   `json:"saved"` // ön sipariş satırı, mutfağa gitmez
}

type CreateOrderRequest struct {
	Type           string        `json:"type"` // dine_in | takeaway | delivery
	TableID        *uint         `json:"table_id"`
	LinkedTableIDs []uint        `json:"linked_table_ids"`
	GuestsCount    int           `json:"guests_count"`
	CustomerID     *uint         `json:"customer_id"`
	ReservationID  *uint         `json:"reservation_id"`
	PromoCode      string        `json:"promo_code"`
	Comment        string        `json:"comment"`
	Items          []ItemRequest `json:"items"`
	BranchID       *uint         `json:"branch_id"`
}

func validOrderType(t string) bool {
	switch models.OrderType(t) {
	case models.OrderTypeDineIn, models.OrderTypeTakeaway, models.OrderTypeDelivery:
		return true
	}
	return false
}

// buildItem - Katalog anlık görüntüsünden sipariş kalemi üretir: fiyat ve
// modifier'lar sipariş anında dondurulur, sonraki menü değişikliklerinden
// etkilenmez.
func buildItem(snap *catalog.Snapshot, req ItemRequest) (models.OrderItem, error) {
	var it models.OrderItem

	if req.Quantity < 1 {
		return it, fiber.NewError(fiber.StatusBadRequest, "Adet en az 1 olmalı")
	}
	dish, ok := snap.Dish(req.DishID)
	if !ok {
		return it, fiber.NewError(fiber.StatusBadRequest, "Yemek bulunamadı")
	}
	if !snap.IsAvailable(req.DishID) {
		return it, fiber.NewError(fiber.StatusConflict, "Yemek stop listede: "+dish.Name)
	}

	price, _ := snap.EffectivePrice(req.DishID)

	mods := make([]models.OrderItemModifier, 0, len(req.ModifierIDs))
	for _, mid := range req.ModifierIDs {
		m, ok := snap.Modifier(req.DishID, mid)
		if !ok {
			return it, fiber.NewError(fiber.StatusBadRequest, "Modifier bu yemeğe ait değil")
		}
		mods = append(mods, models.OrderItemModifier{ModifierID: m.ID, Name: m.Name, Price: m.Price})
	}

	guest := req.GuestNumber
	if guest < 1 {
		guest = 1
	}
	status := models.ItemStatusPending
	if req.Saved {
		status = models.ItemStatusSaved
	}

	it = models.OrderItem{
		DishID:      req.DishID,
		DishName:    dish.Name,
		UnitPrice:   price,
		Quantity:    req.Quantity,
		GuestNumber: guest,
		Status:      status,
		Comment:     strings.TrimSpace(req.Comment),
	}
	it.SetModifiers(mods)
	it.LineTotal = round2(it.ComputeLineTotal())
	return it, nil
}

// occupyTables - Masaları sipariş için işgal eder; dolu masa reddedilir.
// Rezerve masa sadece rezervasyon bağlıysa açılabilir.
func occupyTables(tx *gorm.DB, branchID uint, tableIDs []uint, hasReservation bool) error {
	for _, tid := range tableIDs {
		var tbl models.Table
		if err := tx.Where("id = ? AND branch_id = ?", tid, branchID).First(&tbl).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Masa bulunamadı")
		}
		if tbl.Status == models.TableStatusOccupied {
			return fiber.NewError(fiber.StatusConflict, "Masa dolu: "+tbl.Name)
		}
		if tbl.Status == models.TableStatusReserved && !hasReservation {
			return fiber.NewError(fiber.StatusConflict, "Masa rezerve: "+tbl.Name)
		}
		if err := tx.Model(&models.Table{}).Where("id = ?", tid).
			Update("status", models.TableStatusOccupied).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa güncellenemedi")
		}
	}
	return nil
}

// POST /api/orders
func CreateOrderHandler(notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if !validOrderType(body.Type) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş tipi (dine_in|takeaway|delivery)")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		orderType := models.OrderType(body.Type)
		if orderType == models.OrderTypeDineIn && body.TableID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Salon siparişi için masa zorunlu")
		}

		guests := body.GuestsCount
		if guests < 1 {
			guests = 1
		}

		o := models.Order{
			BranchID:      branchID,
			Type:          orderType,
			Status:        models.OrderStatusNew,
			PaymentStatus: models.PaymentStatusPending,
			TableID:       body.TableID,
			GuestsCount:   guests,
			CustomerID:    body.CustomerID,
			ReservationID: body.ReservationID,
			PromoCode:     strings.TrimSpace(body.PromoCode),
			Comment:       strings.TrimSpace(body.Comment),
			WaiterID:      &userID,
		}
		o.SetLinkedTables(body.LinkedTableIDs)

		snap, err := catalog.LoadSnapshot(database.DB, branchID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Katalog yüklenemedi")
		}
		for _, ir := range body.Items {
			it, err := buildItem(snap, ir)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, it)
		}

		// Rezervasyon bağlıysa depozito siparişe taşınmak üzere işaretlenir
		if body.ReservationID != nil {
			var resv models.Reservation
			if err := database.DB.Where("id = ? AND branch_id = ?", *body.ReservationID, branchID).
				First(&resv).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Rezervasyon bulunamadı")
			}
			if resv.DepositStatus == models.DepositPaid {
				o.DepositUsed = resv.DepositAmount
			}
			if o.CustomerID == nil && resv.CustomerID != nil {
				o.CustomerID = resv.CustomerID
			}
		}

		if orderType == models.OrderTypeDelivery {
			var br models.Branch
			if err := database.DB.First(&br, branchID).Error; err == nil {
				o.DeliveryFee = br.DeliveryFee
			}
		}

		if err := Reprice(database.DB, &o); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if orderType == models.OrderTypeDineIn {
				tables := append([]uint{*body.TableID}, body.LinkedTableIDs...)
				if err := occupyTables(tx, branchID, tables, body.ReservationID != nil); err != nil {
					return err
				}
			}
			return tx.Create(&o).Error
		})
		if txErr != nil {
			if fe, ok := txErr.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş oluşturulamadı")
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:   &branchID,
			UserID:     userID,
			EntityType: "order",
			EntityID:   o.ID,
			Action:     models.AuditActionCreate,
			After:      o,
		})
		if orderType == models.OrderTypeDineIn && notifier != nil {
			notifier.TableStatusChanged(*body.TableID, string(models.TableStatusOccupied))
		}

		return c.Status(fiber.StatusCreated).JSON(o)
	}
}

// GET /api/orders?status=&table_id=&active=true
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("branch_id = ?", branchID)
		if s := c.Query("status"); s != "" {
			dbq = dbq.Where("status = ?", s)
		}
		if tid := c.QueryInt("table_id"); tid > 0 {
			dbq = dbq.Where("table_id = ?", tid)
		}
		if c.Query("active") == "true" {
			dbq = dbq.Where("status NOT IN ?", []models.OrderStatus{
				models.OrderStatusCompleted, models.OrderStatusCancelled,
			})
		}

		var orders []models.Order
		if err := dbq.Preload("Items").Order("created_at desc").Limit(200).Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}
		return c.JSON(orders)
	}
}

// GET /api/orders/:id
func GetOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var o models.Order
		if err := database.DB.Preload("Items").Preload("Customer").
			Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&o).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}
		return c.JSON(o)
	}
}

// DELETE /api/orders/:id - sadece boş ve ödenmemiş sipariş silinebilir
func DeleteOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var o models.Order
		if err := database.DB.Preload("Items").
			Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&o).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		if o.PaymentStatus == models.PaymentStatusPaid || o.PaidAmount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Ödeme alınmış sipariş silinemez")
		}
		for _, it := range o.Items {
			if !it.IsCancelled() {
				return fiber.NewError(fiber.StatusConflict, "Kalemi olan sipariş silinemez, önce iptal edin")
			}
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := releaseTables(tx, &o); err != nil {
				return err
			}
			return tx.Delete(&o).Error
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş silinemedi")
		}

		userID, _ := auth.UserID(c)
		_ = audit.WriteLog(audit.LogOptions{
			BranchID:   &branchID,
			UserID:     userID,
			EntityType: "order",
			EntityID:   o.ID,
			Action:     models.AuditActionDelete,
			Before:     o,
		})
		return c.JSON(fiber.Map{"deleted": true})
	}
}

// PUT /api/orders/:id/customer - müşteri bağla ve sadakat indirimlerini tazele
func AttachCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var body struct {
			CustomerID *uint `json:"customer_id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		var o models.Order
		if err := database.DB.Preload("Items").
			Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&o).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}
		if o.IsTerminal() {
			return fiber.NewError(fiber.StatusConflict, "Kapanmış siparişte müşteri değiştirilemez")
		}

		if body.CustomerID != nil {
			var cu models.Customer
			if err := database.DB.Where("id = ? AND branch_id = ?", *body.CustomerID, branchID).
				First(&cu).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Müşteri bulunamadı")
			}
		}
		o.CustomerID = body.CustomerID

		if err := Recompute(database.DB, &o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Toplamlar hesaplanamadı")
		}
		if err := saveOrderWithItems(database.DB, &o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
		}
		return c.JSON(o)
	}
}

// POST /api/orders/:id/promo-code
func ApplyPromoCodeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var body struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&body); err != nil || strings.TrimSpace(body.Code) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Promosyon kodu zorunlu")
		}

		var o models.Order
		if err := database.DB.Preload("Items").
			Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&o).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}
		if o.IsTerminal() || o.PaymentStatus == models.PaymentStatusPaid {
			return fiber.NewError(fiber.StatusConflict, "Kapanmış siparişe kod uygulanamaz")
		}
		if o.PromoCode != "" {
			return fiber.NewError(fiber.StatusConflict, "Siparişte zaten bir promosyon kodu var")
		}

		if _, err := promotion.FindByCode(database.DB, branchID, body.Code); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		o.PromoCode = strings.TrimSpace(body.Code)
		if err := Reprice(database.DB, &o); err != nil {
			o.PromoCode = ""
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// Kod hiçbir etki üretmediyse geri alınır
		applied := false
		for _, d := range o.AppliedDiscounts() {
			if d.Type == models.DiscountTypePromoCode {
				applied = true
				break
			}
		}
		if !applied {
			return fiber.NewError(fiber.StatusConflict, "Promosyon kodu bu sipariş için uygun değil")
		}

		if err := saveOrderWithItems(database.DB, &o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
		}
		return c.JSON(o)
	}
}

// POST /api/orders/:id/recalculate - promosyon eşleştirmesi dahil tam
// yeniden fiyatlama
func RecalculateHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var o models.Order
		if err := database.DB.Preload("Items").
			Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&o).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}
		if o.IsTerminal() || o.PaymentStatus == models.PaymentStatusPaid {
			return fiber.NewError(fiber.StatusConflict, "Kapanmış sipariş yeniden fiyatlanamaz")
		}

		if err := Reprice(database.DB, &o); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := saveOrderWithItems(database.DB, &o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
		}
		return c.JSON(o)
	}
}

// POST /api/orders/:id/tables - masaları birleştir
func MergeTablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var body struct {
			TableIDs []uint `json:"table_ids"`
		}
		if err := c.BodyParser(&body); err != nil || len(body.TableIDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "table_ids zorunlu")
		}

		var o models.Order
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).
			First(&o).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}
		if o.Type != models.OrderTypeDineIn || o.IsTerminal() {
			return fiber.NewError(fiber.StatusConflict, "Masa birleştirme sadece açık salon siparişinde yapılır")
		}

		linked := o.LinkedTables()
		existing := make(map[uint]bool, len(linked)+1)
		if o.TableID != nil {
			existing[*o.TableID] = true
		}
		for _, id := range linked {
			existing[id] = true
		}

		var added []uint
		for _, id := range body.TableIDs {
			if !existing[id] {
				added = append(added, id)
			}
		}
		if len(added) == 0 {
			return c.JSON(o)
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := occupyTables(tx, branchID, added, false); err != nil {
				return err
			}
			o.SetLinkedTables(append(linked, added...))
			return tx.Model(&o).Update("linked_table_ids", o.LinkedTableIDs).Error
		})
		if txErr != nil {
			if fe, ok := txErr.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Masalar birleştirilemedi")
		}
		return c.JSON(o)
	}
}

// saveOrderWithItems - siparişi kalemleriyle birlikte kaydeder
func saveOrderWithItems(db *gorm.DB, o *models.Order) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(o).Error
	})
}

// releaseTables - siparişin masalarını serbest bırakır; aynı masayı
// kullanan başka açık ödenmemiş sipariş varsa masa dolu kalır
func releaseTables(tx *gorm.DB, o *models.Order) error {
	if o.Type != models.OrderTypeDineIn || o.TableID == nil {
		return nil
	}

	tables := append([]uint{*o.TableID}, o.LinkedTables()...)
	for _, tid := range tables {
		var count int64
		tx.Model(&models.Order{}).
			Where("branch_id = ? AND table_id = ? AND id <> ? AND status NOT IN ?",
				o.BranchID, tid, o.ID,
				[]models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled}).
			Count(&count)
		if count > 0 {
			continue
		}
		if err := tx.Model(&models.Table{}).Where("id = ?", tid).
			Update("status", models.TableStatusFree).Error; err != nil {
			return err
		}
	}
	return nil
}
