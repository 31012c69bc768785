package reports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/nutrihouse/diet-service/internal/storage"
	"github.com/nutrihouse/diet-service/internal/summary"
)

// Generator renders plan summaries into PDF documents
type Generator struct{}

// NewGenerator creates a new report generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GeneratePDF renders a plan summary into a weekly PDF report
func (g *Generator) GeneratePDF(s *summary.PlanSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Diet Plan: %s", s.Title))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Patient #%d", s.PatientID))
	pdf.Ln(6)
	if s.Notes != nil && *s.Notes != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Notes: %s", *s.Notes))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	// Nutrition summary section
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "Weekly Nutrition")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total calories: %.1f kcal", s.Nutrition.TotalCalories))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Average per day: %.1f kcal", s.Nutrition.AvgDailyCalories))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Proteins: %.1f g", s.Nutrition.TotalProteins))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Carbs: %.1f g", s.Nutrition.TotalCarbs))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fats: %.1f g", s.Nutrition.TotalFats))
	pdf.Ln(10)

	// Per-day tables
	for day := 1; day <= 7; day++ {
		items := s.ItemsByDay[day]
		if len(items) == 0 {
			continue
		}

		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, summary.DayName(day))
		pdf.Ln(7)

		g.drawDayTable(pdf, items)
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *Generator) drawDayTable(pdf *gofpdf.Fpdf, items []storage.DietPlanItemRow) {
	pdf.SetFont("Arial", "", 8)

	// Table header
	pdf.CellFormat(40, 6, "Meal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "Food", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Quantity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Calories", "1", 1, "C", false, 0, "")

	for _, item := range items {
		pdf.CellFormat(40, 6, string(item.MealType), "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, foodLabel(item), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.0f %s", item.Quantity, item.Unit), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, caloriesLabel(item.Calories), "1", 1, "C", false, 0, "")
	}
}

func foodLabel(item storage.DietPlanItemRow) string {
	if item.FoodName != nil && *item.FoodName != "" {
		return *item.FoodName
	}
	return fmt.Sprintf("food #%d", item.FoodID)
}

func caloriesLabel(val *float64) string {
	if val == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *val)
}
