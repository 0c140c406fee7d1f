package catalog

import (
	"log"
	"strconv"
	"strings"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped"`
}

// POST /api/dishes/import
// XLSX menü dosyasını yükler: kolonlar KATEGORİ | YEMEK ADI | FİYAT | BİRİM.
// Var olan yemek (aynı isim) fiyat günceller, yoksa oluşturur.
func ImportMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}

		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası okunamadı: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında sheet bulunamadı")
		}

		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet okunamadı: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası boş")
		}

		// İlk satır başlık satırıysa atla
		startIndex := 0
		if len(rows[0]) > 0 {
			firstCell := strings.ToUpper(strings.TrimSpace(rows[0][0]))
			if strings.Contains(firstCell, "KATEGORİ") || strings.Contains(firstCell, "KATEGORI") ||
				strings.Contains(firstCell, "CATEGORY") {
				startIndex = 1
				log.Println("İlk satır başlık satırı olarak algılandı, atlanıyor")
			}
		}

		result := ImportResult{Skipped: make([]string, 0)}

		for i := startIndex; i < len(rows); i++ {
			row := rows[i]
			if len(row) < 3 {
				continue
			}

			catName := strings.TrimSpace(row[0])
			dishName := strings.TrimSpace(row[1])
			priceStr := strings.TrimSpace(strings.ReplaceAll(row[2], ",", "."))
			unit := ""
			if len(row) > 3 {
				unit = strings.TrimSpace(row[3])
			}

			if catName == "" || dishName == "" {
				continue
			}

			price, err := strconv.ParseFloat(priceStr, 64)
			if err != nil || price < 0 {
				result.Skipped = append(result.Skipped, dishName)
				continue
			}

			// Kategori yoksa oluştur
			var cat models.DishCategory
			err = database.DB.Where("branch_id = ? AND name = ?", branchID, catName).First(&cat).Error
			if err != nil {
				cat = models.DishCategory{BranchID: branchID, Name: catName}
				if err := database.DB.Create(&cat).Error; err != nil {
					result.Skipped = append(result.Skipped, dishName)
					continue
				}
			}

			var dish models.Dish
			err = database.DB.Where("branch_id = ? AND name = ?", branchID, dishName).First(&dish).Error
			if err == nil {
				dish.CategoryID = cat.ID
				dish.Price = price
				if unit != "" {
					dish.Unit = unit
				}
				if err := database.DB.Save(&dish).Error; err != nil {
					result.Skipped = append(result.Skipped, dishName)
					continue
				}
				result.Updated++
			} else {
				dish = models.Dish{
					BranchID:    branchID,
					CategoryID:  cat.ID,
					Name:        dishName,
					Price:       price,
					Unit:        unit,
					IsAvailable: true,
				}
				if err := database.DB.Create(&dish).Error; err != nil {
					result.Skipped = append(result.Skipped, dishName)
					continue
				}
				result.Created++
			}
		}

		log.Printf("Menü importu tamamlandı: %d yeni, %d güncellendi, %d atlandı",
			result.Created, result.Updated, len(result.Skipped))

		return c.JSON(result)
	}
}
