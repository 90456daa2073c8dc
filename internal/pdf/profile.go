package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"emaginer/internal/models"
)

// Generator — интерфейс (удобно мокать в тестах)
type Generator interface {
	GenerateProfile(user *models.User) ([]byte, error)
}

// ProfileGenerator — выгрузка карточки аккаунта в PDF (админский экспорт).
type ProfileGenerator struct{}

func NewProfileGenerator() *ProfileGenerator {
	return &ProfileGenerator{}
}

func (g *ProfileGenerator) GenerateProfile(user *models.User) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Account #%d", user.ID), false)
	pdf.SetAuthor("Emaginer", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "ACCOUNT PROFILE", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	sub := fmt.Sprintf("#%06d  exported %s", user.ID, time.Now().Format("02.01.2006"))
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)

	// ===== Поля карточки. Пароль и его хэш в экспорт не попадают.
	rows := [][2]string{
		{"Name", user.Name},
		{"Username", user.UserName},
		{"Email", user.Email},
		{"Gender", user.Gender},
		{"Status", user.Status},
		{"Role", user.Role},
		{"Created", user.CreatedAt.Format(time.RFC3339)},
		{"Updated", user.UpdatedAt.Format(time.RFC3339)},
	}
	if user.DOB != nil {
		rows = append(rows, [2]string{"Date of birth", user.DOB.Format("2006-01-02")})
	}

	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("profile pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ProfileGenerator) hr(pdf *gofpdf.Fpdf) {
	pdf.Ln(2)
	x, y := pdf.GetXY()
	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(x, y, 190, y)
	pdf.Ln(4)
}
