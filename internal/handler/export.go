package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/fogelran/people-match/internal/domain/entity"
)

var catalogHeaders = []string{"ID", "Вопрос", "Автор", "Создан", "Ответов", "Ответов «да»", "Доля «да»", "Желаемых ответов"}

// ExportCatalog обрабатывает GET /api/questions/export?format=csv|xlsx
func (h *QuestionHandler) ExportCatalog(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	stats, err := h.matching.QuestionCatalog(c.Request.Context())
	if err != nil {
		handleError(c, "QuestionHandler", err)
		return
	}

	filename := fmt.Sprintf("questions_%s", time.Now().Format("2006-01-02"))
	switch format {
	case "xlsx":
		h.exportXLSX(c, stats, filename)
	default:
		h.exportCSV(c, stats, filename)
	}
}

// authorLabel возвращает подпись автора вопроса
func authorLabel(s *entity.QuestionStats) string {
	if s.CreatedBy == entity.SystemAuthorID {
		return "system"
	}
	return strconv.FormatUint(uint64(s.CreatedBy), 10)
}

// exportCSV экспортирует каталог в CSV с правильным экранированием спецсимволов
func (h *QuestionHandler) exportCSV(c *gin.Context, stats []entity.QuestionStats, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(catalogHeaders)
	for i := range stats {
		s := &stats[i]
		writer.Write([]string{
			strconv.FormatUint(uint64(s.ID), 10),
			sanitizeForExcel(s.Text),
			authorLabel(s),
			s.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(s.AnswerCount, 10),
			strconv.FormatInt(s.YesCount, 10),
			strconv.FormatFloat(s.YesRate(), 'f', 2, 64),
			strconv.FormatInt(s.DesireCount, 10),
		})
	}
}

// exportXLSX экспортирует каталог в Excel с использованием StreamWriter
func (h *QuestionHandler) exportXLSX(c *gin.Context, stats []entity.QuestionStats, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Вопросы"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[QuestionHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(catalogHeaders))
	for i, title := range catalogHeaders {
		headers[i] = title
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[QuestionHandler] Ошибка записи заголовков: %v", err)
	}

	for i := range stats {
		s := &stats[i]
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		row := []interface{}{
			s.ID,
			sanitizeForExcel(s.Text),
			authorLabel(s),
			s.CreatedAt.UTC().Format(time.RFC3339),
			s.AnswerCount,
			s.YesCount,
			s.YesRate(),
			s.DesireCount,
		}
		if err := sw.SetRow(fmt.Sprintf("A%d", rowNum), row); err != nil {
			log.Printf("[QuestionHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[QuestionHandler] Ошибка при Flush: %v", err)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[QuestionHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
